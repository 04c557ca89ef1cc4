package backend

import (
	"context"

	"finboard/internal/sheets"
	"finboard/internal/sheets/google"
)

// CleanupFunc releases resources held by a writer.
type CleanupFunc func() error

// Result contains the report writer and an optional cleanup function.
type Result struct {
	Writer  sheets.ReportWriter
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates report writers based on configuration
type Factory interface {
	CreateWriter(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for writer creation
type Config struct {
	Type BackendType

	// xlsx specific
	XLSXPath string

	// Google Sheets specific
	Google google.Config
}

// BackendType represents the export destination
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	XLSXBackend   BackendType = "xlsx"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, XLSXBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
