// Package render formats snapshots as aligned plain-text tables for
// terminal output.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"marketdash/internal/models"

	"github.com/mattn/go-runewidth"
)

const columnGap = "  "

// Snapshot renders every section of a snapshot, or the error message for a
// failed cycle.
func Snapshot(snap *models.Snapshot) string {
	if snap.Failed() {
		return snap.Err + "\n"
	}

	var sb strings.Builder

	for _, sec := range snap.Sections {
		sb.WriteString(sec.Name)
		sb.WriteString("\n")
		sb.WriteString(Table(sec))
		sb.WriteString("\n")
	}

	if !snap.LastUpdated.IsZero() {
		sb.WriteString(fmt.Sprintf("Last updated: %s\n", snap.LastUpdated.Format("2006-01-02 15:04:05")))
	}

	return sb.String()
}

// Table renders one section as a header row, a dash separator, and one line
// per record, columns padded to display width.
func Table(sec models.Section) string {
	cols := sec.ColumnOrder()
	if len(cols) == 0 {
		return "(empty)\n"
	}

	// Build the full cell grid first: header plus data rows.
	grid := [][]string{cols}

	for _, row := range sec.Rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = CellText(row[col])
		}

		grid = append(grid, cells)
	}

	// Column widths use display width, not byte length; section names and
	// cells can carry wide runes.
	widths := make([]int, len(cols))

	for _, row := range grid {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	var sb strings.Builder

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				sb.WriteString(columnGap)
			}

			sb.WriteString(cell)

			if padding := widths[i] - runewidth.StringWidth(cell); padding > 0 && i < len(cells)-1 {
				sb.WriteString(strings.Repeat(" ", padding))
			}
		}

		sb.WriteString("\n")
	}

	writeRow(grid[0])

	separator := make([]string, len(cols))
	for i := range separator {
		separator[i] = strings.Repeat("-", widths[i])
	}

	writeRow(separator)

	for _, row := range grid[1:] {
		writeRow(row)
	}

	return sb.String()
}

// CellText converts a record value back to display text. Missing and nil
// values render empty.
func CellText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
