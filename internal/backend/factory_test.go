package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/aggregate"
	"finboard/internal/config"
	"finboard/internal/sheets/google"
	"finboard/internal/sheets/memory"
	"finboard/internal/sheets/xlsx"
)

func TestBackendType(t *testing.T) {
	assert.True(t, MemoryBackend.IsValid())
	assert.True(t, XLSXBackend.IsValid())
	assert.True(t, SheetsBackend.IsValid())
	assert.False(t, BackendType("sqlite").IsValid())
	assert.Equal(t, []string{"memory", "xlsx", "sheets"}, GetBackendTypeStrings())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	cfg := &config.Config{
		ExportBackend:            "Sheets",
		ExportXLSXPath:           "out.xlsx",
		GoogleSpreadsheetID:      "doc",
		GoogleSheetName:          "Report",
		GoogleServiceAccountFile: "/etc/sa.json",
	}
	bc, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, SheetsBackend, bc.Type)
	assert.Equal(t, "out.xlsx", bc.XLSXPath)
	assert.Equal(t, "doc", bc.Google.SpreadsheetID)
	assert.Equal(t, "/etc/sa.json", bc.Google.ServiceAccountFile)

	cfg.ExportBackend = "csv"
	_, err = FromAppConfig(cfg)
	assert.ErrorContains(t, err, "invalid export backend")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"xlsx with path", Config{Type: XLSXBackend, XLSXPath: "r.xlsx"}, false},
		{"xlsx without path", Config{Type: XLSXBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestCreateWriter(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateWriter(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Writer)
	assert.NoError(t, res.Close())

	path := filepath.Join(t.TempDir(), "r.xlsx")
	res, err = f.CreateWriter(ctx, Config{Type: XLSXBackend, XLSXPath: path})
	require.NoError(t, err)
	require.IsType(t, &xlsx.Writer{}, res.Writer)

	report := aggregate.Build(nil, aggregate.Filter{Location: time.UTC}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ref, err := res.Writer.WriteReport(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, path, ref)
}

func TestCreateWriterSheetsNeedsCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := NewFactory(nil).CreateWriter(context.Background(), Config{
		Type: SheetsBackend,
		Google: google.Config{SpreadsheetID: "doc"},
	})
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestResultCloseRunsCleanup(t *testing.T) {
	called := false
	r := &Result{Cleanup: func() error { called = true; return nil }}
	require.NoError(t, r.Close())
	assert.True(t, called)

	var nilResult *Result
	assert.NoError(t, nilResult.Close())
}
