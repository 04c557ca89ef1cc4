package backend

import (
	"context"
	"fmt"

	"finboard/internal/log"
	"finboard/internal/sheets/google"
	"finboard/internal/sheets/memory"
	"finboard/internal/sheets/xlsx"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new writer factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{
		logger: log.OrDiscard(logger).WithComponent(log.ComponentBackend),
	}
}

// CreateWriter implements Factory.CreateWriter
func (f *DefaultFactory) CreateWriter(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.Info("initialized memory export backend")
		return &Result{Writer: memory.New()}, nil
	case XLSXBackend:
		return f.createXLSXWriter(config)
	case SheetsBackend:
		return f.createSheetsWriter(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createXLSXWriter(config Config) (*Result, error) {
	w, err := xlsx.New(config.XLSXPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize xlsx writer: %w", err)
	}
	f.logger.Info("initialized xlsx export backend", log.FieldPath, w.Path())
	return &Result{Writer: w}, nil
}

func (f *DefaultFactory) createSheetsWriter(ctx context.Context, config Config) (*Result, error) {
	cli, err := google.New(ctx, config.Google, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("initialized Google Sheets export backend", "spreadsheet", config.Google.SpreadsheetID)
	return &Result{Writer: cli}, nil
}
