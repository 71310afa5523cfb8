package download

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"docexplorer/internal/metrics"
)

func serveBody(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		if r.URL.Query().Has("chunked") {
			// Flushing before the body forces chunked encoding.
			w.(http.Flusher).Flush()
		} else {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	body := strings.Repeat("pdf-bytes ", 512)
	srv := serveBody(t, body)

	dir := filepath.Join(t.TempDir(), "out")
	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenLedger failed: %v", err)
	}
	defer ledger.Close()

	m := metrics.New()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr := New(Config{Dir: dir, Ledger: ledger, Metrics: m, Now: func() time.Time { return fixed }})

	var last Progress
	res, err := mgr.Fetch(context.Background(), Request{DocumentID: "d1", URL: srv.URL + "/q1.pdf", Name: "file_1.pdf"},
		func(p Progress) { last = p })
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "file_1.pdf"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != body {
		t.Error("downloaded content mismatch")
	}
	if res.Size != int64(len(body)) {
		t.Errorf("Size = %d, want %d", res.Size, len(body))
	}
	if want := fmt.Sprintf("%x", sha256.Sum256([]byte(body))); res.SHA256 != want {
		t.Errorf("SHA256 = %s, want %s", res.SHA256, want)
	}
	if last.Written != int64(len(body)) || last.Percent() != 1 {
		t.Errorf("final progress = %+v", last)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the final file, got %d entries", len(entries))
	}

	hist, err := mgr.History(10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 ledger row, got %d", len(hist))
	}
	h := hist[0]
	if h.DocumentID != "d1" || h.Path != res.Path || h.MIME != "application/pdf" || !h.Completed.Equal(fixed) {
		t.Errorf("unexpected ledger row: %+v", h)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `docexplorer_downloads_total{result="success"} 1`) {
		t.Error("download not counted in metrics")
	}
}

func TestFetchUnknownLength(t *testing.T) {
	body := strings.Repeat("chunk ", 1000)
	srv := serveBody(t, body)
	mgr := New(Config{Dir: t.TempDir()})

	var last Progress
	res, err := mgr.Fetch(context.Background(), Request{URL: srv.URL + "/a.pdf?chunked", Name: "a.pdf"},
		func(p Progress) { last = p })
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.Size != int64(len(body)) {
		t.Errorf("Size = %d, want %d", res.Size, len(body))
	}
	if last.Total != -1 || last.Written != int64(len(body)) || last.Percent() != 0 {
		t.Errorf("final progress = %+v", last)
	}
}

func TestFetchFailures(t *testing.T) {
	srv := serveBody(t, "x")
	dir := t.TempDir()
	mgr := New(Config{Dir: dir})

	tests := []struct {
		name string
		req  Request
	}{
		{name: "not found", req: Request{URL: srv.URL + "/missing", Name: "a.pdf"}},
		{name: "path in name", req: Request{URL: srv.URL + "/a", Name: "../a.pdf"}},
		{name: "empty name", req: Request{URL: srv.URL + "/a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := mgr.Fetch(context.Background(), tt.req, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("failed downloads left files: %v", entries)
	}
}

func TestFetchRefusesOverwrite(t *testing.T) {
	srv := serveBody(t, "new")
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	mgr := New(Config{Dir: dir})
	if _, err := mgr.Fetch(context.Background(), Request{URL: srv.URL + "/a", Name: "a.pdf"}, nil); err == nil {
		t.Fatal("expected error for existing file")
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "old" {
		t.Errorf("existing file overwritten: %q", data)
	}
}

func TestLedgerRecentOrder(t *testing.T) {
	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenLedger failed: %v", err)
	}
	defer ledger.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := Record{DocumentID: fmt.Sprintf("d%d", i), Name: "n", URL: "u", Path: "p", Completed: base.Add(time.Duration(i) * time.Hour)}
		if err := ledger.Add(r); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	got, err := ledger.Recent(3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 || got[0].DocumentID != "d4" || got[2].DocumentID != "d2" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestLedgerOrderWithinSecond(t *testing.T) {
	ledger, err := OpenLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenLedger failed: %v", err)
	}
	defer ledger.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Inserted newest first so id order cannot explain the result.
	for _, r := range []Record{
		{DocumentID: "later", Completed: base.Add(100 * time.Millisecond)},
		{DocumentID: "whole", Completed: base},
		{DocumentID: "earlier", Completed: base.Add(-500 * time.Millisecond)},
	} {
		r.Name, r.URL, r.Path = "n", "u", "p"
		if err := ledger.Add(r); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	got, err := ledger.Recent(3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	var order []string
	for _, r := range got {
		order = append(order, r.DocumentID)
	}
	if strings.Join(order, ",") != "later,whole,earlier" {
		t.Errorf("order = %v", order)
	}
	if !got[1].Completed.Equal(base) {
		t.Errorf("Completed = %v, want %v", got[1].Completed, base)
	}
}

func TestHistoryWithoutLedger(t *testing.T) {
	got, err := New(Config{Dir: t.TempDir()}).History(5)
	if err != nil || got != nil {
		t.Errorf("History() = %v, %v", got, err)
	}
}
