package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestSnapshot_MarshalJSON_SectionOrder(t *testing.T) {
	snap := &Snapshot{LastUpdated: testTime}
	snap.SetSection("Asian Markets", []string{"Name", "Current"}, []Record{
		{"Name": "Nikkei 225", "Current": 38120.5},
	})
	snap.SetSection("European Markets", []string{"Name"}, []Record{})

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"Asian Markets":[{"Current":38120.5,"Name":"Nikkei 225"}],` +
		`"European Markets":[],"last_updated":"2026-01-02T03:04:05Z"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestSnapshot_MarshalJSON_EmptySectionNotOmitted(t *testing.T) {
	snap := &Snapshot{LastUpdated: testTime}
	snap.SetSection("Empty", []string{"Name"}, nil)

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `"Empty":[]`) {
		t.Errorf("Expected empty section to marshal as [], got %s", data)
	}
}

func TestSnapshot_MarshalJSON_ErrorSchema(t *testing.T) {
	snap := NewErrorSnapshot("No market data tables found on the page.", testTime)

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"error":"No market data tables found on the page.","timestamp":"2026-01-02T03:04:05Z"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestSnapshot_UnmarshalJSON(t *testing.T) {
	raw := `{"Asian Markets":[{"Name":"Nikkei 225","Current":38120.5,"Note":null}],` +
		`"European Markets":[],"last_updated":"2026-01-02T03:04:05Z"}`

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if snap.Failed() {
		t.Fatal("Expected success snapshot")
	}

	if len(snap.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(snap.Sections))
	}

	if snap.Sections[0].Name != "Asian Markets" || snap.Sections[1].Name != "European Markets" {
		t.Errorf("Sections out of order: %s, %s", snap.Sections[0].Name, snap.Sections[1].Name)
	}

	row := snap.Sections[0].Rows[0]
	if row["Name"] != "Nikkei 225" {
		t.Errorf("Expected string value, got %#v", row["Name"])
	}

	if row["Current"] != 38120.5 {
		t.Errorf("Expected numeric value 38120.5, got %#v", row["Current"])
	}

	if val, ok := row["Note"]; !ok || val != nil {
		t.Errorf("Expected null value to stay nil, got %#v", val)
	}

	if snap.Sections[1].Rows == nil || len(snap.Sections[1].Rows) != 0 {
		t.Errorf("Expected empty non-nil row slice, got %#v", snap.Sections[1].Rows)
	}

	if !snap.LastUpdated.Equal(testTime) {
		t.Errorf("Expected %v, got %v", testTime, snap.LastUpdated)
	}
}

func TestSnapshot_UnmarshalJSON_ErrorSnapshot(t *testing.T) {
	raw := `{"error":"An error occurred: boom","timestamp":"2026-01-02T03:04:05Z"}`

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !snap.Failed() {
		t.Fatal("Expected error snapshot")
	}

	if snap.Err != "An error occurred: boom" {
		t.Errorf("Unexpected message: %s", snap.Err)
	}

	if len(snap.Sections) != 0 {
		t.Errorf("Error snapshot must carry no sections, got %d", len(snap.Sections))
	}
}

func TestSnapshot_UnmarshalJSON_ZonelessTimestamp(t *testing.T) {
	// Cache files written by the original deployment carry isoformat
	// timestamps without a zone offset.
	raw := `{"Asia":[],"last_updated":"2026-01-02T03:04:05.123456"}`

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if snap.LastUpdated.IsZero() {
		t.Error("Expected parsed timestamp, got zero")
	}
}

func TestSnapshot_UnmarshalJSON_BadDocuments(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"truncated", `{"Asia":[{"Name":"Nik`},
		{"not an object", `[1,2,3]`},
		{"bad timestamp", `{"Asia":[],"last_updated":"yesterday"}`},
		{"section not an array", `{"Asia":{"Name":"Nikkei"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var snap Snapshot
			if err := json.Unmarshal([]byte(tc.raw), &snap); err == nil {
				t.Errorf("Expected error for %s", tc.name)
			}
		})
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	snap := &Snapshot{LastUpdated: testTime}
	snap.SetSection("Asian Markets", []string{"Name", "Current", "Change"}, []Record{
		{"Name": "Nikkei 225", "Current": 38120.5, "Change": 1.23},
		{"Name": "Hang Seng", "Current": 17651.15, "Change": -0.85},
	})
	snap.SetSection("European Markets", nil, []Record{
		{"Name": "FTSE 100", "Current": "N/A"},
	})

	first, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Snapshot
	if err := json.Unmarshal(first, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	second, err := json.Marshal(&decoded)
	if err != nil {
		t.Fatalf("Re-marshal failed: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("Round trip not stable:\n%s\n%s", first, second)
	}
}

func TestSnapshot_SetSection_LastWriteWins(t *testing.T) {
	snap := &Snapshot{}
	snap.SetSection("Asia", nil, []Record{{"Name": "old"}})
	snap.SetSection("Europe", nil, []Record{})
	snap.SetSection("Asia", nil, []Record{{"Name": "new"}})

	if len(snap.Sections) != 2 {
		t.Fatalf("Expected 2 sections, got %d", len(snap.Sections))
	}

	if snap.Sections[0].Name != "Asia" || snap.Sections[0].Rows[0]["Name"] != "new" {
		t.Errorf("Expected duplicate heading to replace rows, got %#v", snap.Sections[0])
	}
}

func TestSnapshot_ExportJSON(t *testing.T) {
	snap := &Snapshot{LastUpdated: testTime}
	snap.SetSection("Asia", []string{"Name"}, []Record{{"Name": "Nikkei 225"}})

	data, err := snap.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON failed: %v", err)
	}

	out := string(data)

	if strings.Contains(out, KeyLastUpdated) {
		t.Error("Export must not carry last_updated")
	}

	if !strings.Contains(out, "\n    \"Asia\"") {
		t.Errorf("Expected 4-space indentation, got:\n%s", out)
	}

	var decoded map[string][]Record
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Export output is not valid JSON: %v", err)
	}

	if decoded["Asia"][0]["Name"] != "Nikkei 225" {
		t.Errorf("Unexpected export content: %#v", decoded)
	}
}

func TestSnapshot_ExportJSON_ErrorSnapshot(t *testing.T) {
	snap := NewErrorSnapshot("boom", testTime)

	if _, err := snap.ExportJSON(); err == nil {
		t.Error("Expected error exporting an error snapshot")
	}
}

func TestSection_ColumnOrder(t *testing.T) {
	withHeader := Section{Columns: []string{"Name", "Current", "Change"}}
	got := withHeader.ColumnOrder()

	if len(got) != 3 || got[0] != "Name" || got[2] != "Change" {
		t.Errorf("Expected header order preserved, got %v", got)
	}

	// After a cache round trip the header order is gone; fall back to the
	// sorted union of row keys.
	fromCache := Section{Rows: []Record{
		{"Name": "x", "Current": 1.0},
		{"Change": 2.0},
	}}

	got = fromCache.ColumnOrder()
	if len(got) != 3 || got[0] != "Change" || got[1] != "Current" || got[2] != "Name" {
		t.Errorf("Expected sorted fallback order, got %v", got)
	}
}
