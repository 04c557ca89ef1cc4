package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finboard/internal/aggregate"
	"finboard/internal/core"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "doc"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	cfg := Config{SpreadsheetID: "doc", ServiceAccountFile: filepath.Join(t.TempDir(), "nope.json")}
	_, err := New(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Report", 2025, "2025 Report"},
		{"", 2023, ""},
		{"Test Sheet", 2022, "2022 Test Sheet"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.baseName, tt.year); got != tt.expected {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.baseName, tt.year, got, tt.expected)
		}
	}
}

func TestA1QuotesSheetName(t *testing.T) {
	if got := a1("2025 Bob's", "A1"); got != "'2025 Bob''s'!A1" {
		t.Errorf("a1 = %q", got)
	}
}

type fakeSheets struct {
	mu       sync.Mutex
	existing []string
	calls    []string
	written  [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/doc"):
		f.calls = append(f.calls, "get")
		var sheets []map[string]any
		for _, title := range f.existing {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
		}
		json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.calls = append(f.calls, "add")
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.calls = append(f.calls, "clear")
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "update")
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		f.written = vr.Values
		w.Write([]byte(`{"updatedRange":"'2025 Report'!A1:E26"}`))
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, "doc", "", nil)
}

func report() aggregate.Report {
	txs := []core.Transaction{
		{ID: "1", Name: "Sale", Amount: core.NewAmount(300), Type: core.Income, TransactionDate: "2025-01-10"},
	}
	return aggregate.Build(txs, aggregate.Filter{Location: time.UTC}, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestWriteReportCreatesSheetAndWrites(t *testing.T) {
	fake := &fakeSheets{existing: []string{"Other"}}
	c := newFakeClient(t, fake)

	ref, err := c.WriteReport(context.Background(), report())
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if ref != "'2025 Report'!A1:E26" {
		t.Errorf("ref = %q", ref)
	}
	if got := strings.Join(fake.calls, ","); got != "get,add,clear,update" {
		t.Errorf("calls = %s", got)
	}
	if len(fake.written) == 0 || fake.written[0][0] != "Granularity" {
		t.Errorf("unexpected first row: %v", fake.written)
	}
}

func TestWriteReportReusesExistingSheet(t *testing.T) {
	fake := &fakeSheets{existing: []string{"2025 Report"}}
	c := newFakeClient(t, fake)

	if _, err := c.WriteReport(context.Background(), report()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if got := strings.Join(fake.calls, ","); got != "get,clear,update" {
		t.Errorf("calls = %s", got)
	}
}

func TestWriteReportWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "doc"}
	if _, err := c.WriteReport(context.Background(), report()); err == nil {
		t.Fatal("expected error with nil service")
	}
}
