// Package xlsx writes reports to a local Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"finboard/internal/aggregate"
	"finboard/internal/sheets"
)

const (
	SummarySheet = "Summary"
	BucketsSheet = "Buckets"
)

var _ sheets.ReportWriter = (*Writer)(nil)

// Writer replaces the workbook at path on every write.
type Writer struct {
	path string
}

func New(path string) (*Writer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("missing xlsx export path")
	}
	return &Writer{path: path}, nil
}

func (w *Writer) Path() string { return w.path }

// WriteReport saves a Summary sheet and a Buckets sheet and returns the file
// path.
func (w *Writer) WriteReport(ctx context.Context, r aggregate.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(BucketsSheet); err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	if err := writeRows(f, SummarySheet, sheets.SummaryRows(r)); err != nil {
		return "", err
	}
	if err := writeRows(f, BucketsSheet, sheets.BucketRows(r)); err != nil {
		return "", err
	}

	f.SetColWidth(SummarySheet, "A", "A", 22)
	f.SetColWidth(SummarySheet, "B", "C", 16)
	f.SetColWidth(BucketsSheet, "A", "A", 14)
	f.SetColWidth(BucketsSheet, "B", "E", 14)

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return w.path, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
