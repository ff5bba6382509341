// Package models defines the market snapshot data model and its wire codec.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Reserved keys in the snapshot wire schema. Every other top-level key is a
// section name.
const (
	KeyLastUpdated = "last_updated"
	KeyError       = "error"
	KeyTimestamp   = "timestamp"
)

// ErrMalformedSnapshot indicates a document that does not match the snapshot schema.
var ErrMalformedSnapshot = errors.New("malformed snapshot document")

// Record is one row of one source table: column name to scalar value.
// Values are string, float64, or nil.
type Record map[string]any

// Section is one named group of rows extracted from one source table.
type Section struct {
	Name    string
	Columns []string // header order as seen in the source; empty after a cache round trip
	Rows    []Record
}

// ColumnOrder returns the display order of the section's columns: the source
// header order when known, otherwise the sorted union of row keys.
func (sec Section) ColumnOrder() []string {
	if len(sec.Columns) > 0 {
		return sec.Columns
	}

	seen := make(map[string]bool)

	var cols []string

	for _, row := range sec.Rows {
		for key := range row {
			if !seen[key] {
				seen[key] = true

				cols = append(cols, key)
			}
		}
	}

	sort.Strings(cols)

	return cols
}

// Snapshot is the output of one fetch cycle: either an ordered set of
// sections with a last-updated stamp, or an error message with a timestamp.
// A snapshot is never mutated once produced; a new cycle replaces it whole.
type Snapshot struct {
	Sections    []Section
	LastUpdated time.Time

	// Err and Timestamp are set instead of Sections when the cycle failed.
	Err       string
	Timestamp time.Time
}

// NewErrorSnapshot builds the error-tagged snapshot for a failed cycle.
func NewErrorSnapshot(msg string, at time.Time) *Snapshot {
	return &Snapshot{Err: msg, Timestamp: at}
}

// Failed reports whether this snapshot represents a failed cycle.
func (s *Snapshot) Failed() bool {
	return s.Err != ""
}

// SetSection adds a section, replacing any existing section with the same
// name. Duplicate headings on the source page collapse last-write-wins.
func (s *Snapshot) SetSection(name string, columns []string, rows []Record) {
	for i := range s.Sections {
		if s.Sections[i].Name == name {
			s.Sections[i].Columns = columns
			s.Sections[i].Rows = rows

			return
		}
	}

	s.Sections = append(s.Sections, Section{Name: name, Columns: columns, Rows: rows})
}

// MarshalJSON encodes the snapshot in the cache file schema: one top-level
// object with section names as keys in document order plus the reserved
// last_updated key, or exactly {"error": ..., "timestamp": ...} on failure.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	if s.Failed() {
		if err := writeMember(&buf, KeyError, s.Err); err != nil {
			return nil, err
		}

		buf.WriteByte(',')

		if err := writeMember(&buf, KeyTimestamp, formatTime(s.Timestamp)); err != nil {
			return nil, err
		}
	} else {
		for _, sec := range s.Sections {
			rows := sec.Rows
			if rows == nil {
				rows = []Record{}
			}

			if err := writeMember(&buf, sec.Name, rows); err != nil {
				return nil, err
			}

			buf.WriteByte(',')
		}

		if err := writeMember(&buf, KeyLastUpdated, formatTime(s.LastUpdated)); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the cache file schema, preserving section order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: not a JSON object", ErrMalformedSnapshot)
	}

	var out Snapshot

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}

		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("%w: non-string key", ErrMalformedSnapshot)
		}

		switch key {
		case KeyError:
			if err := dec.Decode(&out.Err); err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
			}
		case KeyTimestamp:
			if out.Timestamp, err = decodeTime(dec); err != nil {
				return err
			}
		case KeyLastUpdated:
			if out.LastUpdated, err = decodeTime(dec); err != nil {
				return err
			}
		default:
			var rows []Record
			if err := dec.Decode(&rows); err != nil {
				return fmt.Errorf("%w: section %q: %v", ErrMalformedSnapshot, key, err)
			}

			if rows == nil {
				rows = []Record{}
			}

			out.SetSection(key, nil, rows)
		}
	}

	*s = out

	return nil
}

// ExportJSON encodes the snapshot for the standalone export file: the same
// object minus last_updated, indented with 4 spaces. Error snapshots are not
// exportable.
func (s Snapshot) ExportJSON() ([]byte, error) {
	if s.Failed() {
		return nil, fmt.Errorf("%w: error snapshots are not exported", ErrMalformedSnapshot)
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, sec := range s.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}

		rows := sec.Rows
		if rows == nil {
			rows = []Record{}
		}

		if err := writeMember(&buf, sec.Name, rows); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, val any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}

	buf.Write(k)
	buf.WriteByte(':')

	v, err := json.Marshal(val)
	if err != nil {
		return err
	}

	buf.Write(v)

	return nil
}

// isoLayout accepts timestamps written without a zone offset, as the original
// cache files carried.
const isoLayout = "2006-01-02T15:04:05.999999999"

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func decodeTime(dec *json.Decoder) (time.Time, error) {
	var raw string
	if err := dec.Decode(&raw); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}

	if t, err := time.Parse(isoLayout, raw); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedSnapshot, raw)
}
