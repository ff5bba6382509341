// Package extractor turns the raw markets page HTML into a snapshot.
package extractor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"marketdash/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTables indicates the page carried no matching market data tables,
// usually because the upstream markup changed.
var ErrNoTables = errors.New("no market data tables found on the page")

// Extractor locates market data tables by class marker and groups each one
// under the nearest preceding heading. The marker and heading tag are
// injected so the matching rule can change without touching extraction.
type Extractor struct {
	tableClass string
	headingTag string
	now        func() time.Time
}

// NewExtractor creates an extractor matching tables whose class attribute
// contains tableClass, titled by the nearest preceding h2.
func NewExtractor(tableClass string) *Extractor {
	return NewExtractorWithClock(tableClass, "h2", time.Now)
}

// NewExtractorWithClock creates an extractor with an injected heading tag and
// clock, for tests and alternate page layouts.
func NewExtractorWithClock(tableClass, headingTag string, now func() time.Time) *Extractor {
	return &Extractor{
		tableClass: tableClass,
		headingTag: headingTag,
		now:        now,
	}
}

// Extract parses rawHTML and assembles a snapshot of all matching tables in
// document order. It fails with ErrNoTables when no table matches; the
// caller decides whether that becomes an error snapshot.
func (e *Extractor) Extract(rawHTML string) (*models.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	tableSel := "table." + e.tableClass
	if doc.Find(tableSel).Length() == 0 {
		return nil, ErrNoTables
	}

	snap := &models.Snapshot{}

	// One pass over headings and tables in document order: the section name
	// for a table is the last heading seen before it.
	lastHeading := ""

	doc.Find(e.headingTag + ", " + tableSel).Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == e.headingTag {
			lastHeading = strings.TrimSpace(sel.Text())

			return
		}

		name := lastHeading
		if name == "" {
			name = fmt.Sprintf("Market_Table_%d", len(snap.Sections)+1)
		}

		columns, rows := parseTable(sel)
		snap.SetSection(name, columns, rows)
	})

	snap.LastUpdated = e.now()

	return snap, nil
}

// parseTable reads the first row as column names and every later row as one
// record keyed by those names. A header-only table yields an empty row slice,
// not a missing section. Rows with surplus cells lose the surplus; short rows
// produce short records. Source tables are heterogeneous and malformed rows
// are kept as-is.
func parseTable(table *goquery.Selection) ([]string, []models.Record) {
	trs := table.Find("tr")
	if trs.Length() == 0 {
		return nil, []models.Record{}
	}

	var columns []string

	trs.First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		columns = append(columns, strings.TrimSpace(cell.Text()))
	})

	rows := []models.Record{}

	trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		if cells.Length() == 0 {
			return
		}

		record := models.Record{}

		cells.Each(func(i int, cell *goquery.Selection) {
			if i >= len(columns) {
				return
			}

			record[columns[i]] = CoerceCell(cell.Text())
		})

		rows = append(rows, record)
	})

	return columns, rows
}

// CoerceCell converts one cell's text to its record value. Empty cells become
// nil. Thousands separators, a trailing percent sign, and a leading plus are
// stripped before the numeric parse; when the parse still fails the raw
// trimmed string is preserved.
func CoerceCell(raw string) any {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	cleaned := strings.ReplaceAll(text, ",", "")
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "+"))

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return text
	}

	return f
}
