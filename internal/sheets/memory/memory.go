package memory

import (
	"context"
	"fmt"
	"sync"

	"finboard/internal/aggregate"
	"finboard/internal/sheets"
)

var _ sheets.ReportWriter = (*Store)(nil)

// Store keeps every written report in memory.
type Store struct {
	mu      sync.Mutex
	reports []aggregate.Report
}

func New() *Store {
	return &Store{}
}

// WriteReport stores the report and returns a synthetic reference.
func (s *Store) WriteReport(_ context.Context, r aggregate.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns a copy of what was written, oldest first.
func (s *Store) Reports() []aggregate.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]aggregate.Report(nil), s.reports...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
