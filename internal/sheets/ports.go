// Package sheets exports aggregated reports to spreadsheets. Adapters live in
// the subpackages: memory for tests and dry runs, xlsx for a local workbook
// and google for a Google Sheets document.
package sheets

import (
	"context"

	"finboard/internal/aggregate"
)

// Ports for outbound adapters.
type (
	// ReportWriter stores a report and returns a reference to where it went:
	// a file path, a sheet range or a synthetic id.
	ReportWriter interface {
		WriteReport(ctx context.Context, r aggregate.Report) (ref string, err error)
	}
)
