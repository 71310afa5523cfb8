package explorer

import (
	"regexp"
	"testing"
	"time"

	"docexplorer/internal/docapi"
)

func TestToggleTwiceRestoresState(t *testing.T) {
	ids := []string{"f1", "f2", "f3"}

	var s ExpansionSet
	s.Toggle("f2")
	for _, id := range ids {
		before := s.IsExpanded(id)
		s.Toggle(id)
		if s.IsExpanded(id) == before {
			t.Errorf("Toggle(%q) did not flip state", id)
		}
		s.Toggle(id)
		if s.IsExpanded(id) != before {
			t.Errorf("Toggle(%q) twice changed state", id)
		}
	}
	if s.Len() != 1 || !s.IsExpanded("f2") {
		t.Errorf("unexpected set after toggles: len=%d", s.Len())
	}
}

func TestExpansionRetainAndReset(t *testing.T) {
	var s ExpansionSet
	s.Toggle("f1")
	s.Toggle("gone")

	s.Retain([]docapi.Folder{{ID: "f1"}, {ID: "f2"}})
	if !s.IsExpanded("f1") || s.IsExpanded("gone") {
		t.Errorf("Retain kept wrong ids")
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Reset left %d ids", s.Len())
	}
}

func TestActionMenuReplacesSelection(t *testing.T) {
	a := docapi.File{ID: "a", Name: "A.pdf"}
	b := docapi.File{ID: "b", Name: "B.pdf"}

	var m ActionMenu
	m.Open(a)
	m.Highlight(ActionDelete)
	m.Open(b)

	got, ok := m.Selected()
	if !ok || got.ID != "b" {
		t.Fatalf("Selected() = %+v, %v; want B", got, ok)
	}
	if m.Cursor() != ActionOpen {
		t.Errorf("highlight from A persisted: %v", m.Cursor())
	}
}

func TestActionMenuTakeClears(t *testing.T) {
	var m ActionMenu
	m.Open(docapi.File{ID: "a"})
	m.Move(1)

	file, action, ok := m.Take()
	if !ok || file.ID != "a" || action != ActionDownload {
		t.Fatalf("Take() = %+v, %v, %v", file, action, ok)
	}
	if m.IsOpen() {
		t.Error("menu still open after Take")
	}
	if _, _, ok := m.Take(); ok {
		t.Error("second Take returned a selection")
	}
}

func TestActionMenuMoveWraps(t *testing.T) {
	var m ActionMenu
	m.Open(docapi.File{ID: "a"})
	m.Move(-1)
	if m.Cursor() != ActionDelete {
		t.Errorf("Move(-1) from first = %v, want Delete", m.Cursor())
	}
	m.Move(1)
	if m.Cursor() != ActionOpen {
		t.Errorf("Move(1) from last = %v, want Open link", m.Cursor())
	}
}

func TestFlatten(t *testing.T) {
	folders := []docapi.Folder{
		{ID: "f1", Name: "Reports", Files: []docapi.File{{ID: "d1", Name: "Q1.pdf"}, {ID: "d2", Name: "Q2.pdf"}}},
		{ID: "f2", Name: "Contracts", Files: []docapi.File{{ID: "d3"}}},
	}

	var s ExpansionSet
	if rows := Flatten(folders, &s); len(rows) != 2 {
		t.Fatalf("collapsed tree has %d rows, want 2", len(rows))
	}

	s.Toggle("f1")
	rows := Flatten(folders, &s)
	if len(rows) != 4 {
		t.Fatalf("expanded tree has %d rows, want 4", len(rows))
	}
	if rows[0].Kind != RowFolder || !rows[0].Expanded {
		t.Errorf("row 0 should be expanded folder: %+v", rows[0])
	}
	if rows[1].Kind != RowFile || rows[1].File.Name != "Q1.pdf" || rows[2].File.Name != "Q2.pdf" {
		t.Errorf("file rows out of order: %+v %+v", rows[1], rows[2])
	}
	if rows[3].Kind != RowFolder || rows[3].Folder.ID != "f2" {
		t.Errorf("row 3 should be folder f2: %+v", rows[3])
	}
	if FileCount(folders) != 3 {
		t.Errorf("FileCount() = %d, want 3", FileCount(folders))
	}
}

func TestResolveLocator(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		host     string
		expected string
		wantErr  bool
	}{
		{name: "no override", raw: "http://localhost:5001/a.pdf", expected: "http://localhost:5001/a.pdf"},
		{name: "localhost rewritten", raw: "http://localhost:5001/a.pdf", host: "10.0.2.2", expected: "http://10.0.2.2:5001/a.pdf"},
		{name: "ipv4 loopback rewritten", raw: "http://127.0.0.1/a.pdf", host: "10.0.2.2", expected: "http://10.0.2.2/a.pdf"},
		{name: "ipv6 loopback rewritten", raw: "http://[::1]:8080/a.pdf", host: "10.0.2.2", expected: "http://10.0.2.2:8080/a.pdf"},
		{name: "remote host untouched", raw: "https://cdn.example.com/a.pdf", host: "10.0.2.2", expected: "https://cdn.example.com/a.pdf"},
		{name: "relative rejected", raw: "/uploads/a.pdf", wantErr: true},
		{name: "empty rejected", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLocator(tt.raw, tt.host)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveLocator(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveLocator(%q) failed: %v", tt.raw, err)
			}
			if got != tt.expected {
				t.Errorf("ResolveLocator(%q, %q) = %q, want %q", tt.raw, tt.host, got, tt.expected)
			}
		})
	}
}

func TestDownloadName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	tests := []struct {
		name     string
		locator  string
		fileName string
		expected string
	}{
		{name: "extension from locator", locator: "http://host/q1.pdf", fileName: "Q1", expected: "file_1700000000123.pdf"},
		{name: "query ignored", locator: "http://host/q1.docx?sig=abc", fileName: "Q1", expected: "file_1700000000123.docx"},
		{name: "extension from name", locator: "http://host/blob/123", fileName: "scan.png", expected: "file_1700000000123.png"},
		{name: "no extension", locator: "http://host/blob/123", fileName: "scan", expected: "file_1700000000123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DownloadName(tt.locator, tt.fileName, now); got != tt.expected {
				t.Errorf("DownloadName() = %q, want %q", got, tt.expected)
			}
		})
	}

	if !regexp.MustCompile(`^file_\d+\.pdf$`).MatchString(DownloadName("http://host/q1.pdf", "Q1.pdf", time.Now())) {
		t.Error("DownloadName does not match file_<timestamp>.pdf")
	}
}
