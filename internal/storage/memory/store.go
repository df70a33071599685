// Package memory provides an in-memory run history store, useful for
// embedding the engine without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tjfontaine/drydock/internal/engine"
)

// Store is an in-memory implementation of engine.Store.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*engine.RunReport
}

var _ engine.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		runs: make(map[string]*engine.RunReport),
	}
}

// SaveRun records a completed run. Run IDs are unique per run, so a
// duplicate is an error.
func (s *Store) SaveRun(ctx context.Context, report *engine.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[report.ID]; exists {
		return fmt.Errorf("run %s already recorded", report.ID)
	}
	s.runs[report.ID] = report
	return nil
}

// GetRun returns one run report by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*engine.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, exists := s.runs[id]
	if !exists {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return report, nil
}

// RecentRuns lists the most recently finished runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*engine.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	reports := make([]*engine.RunReport, 0, len(s.runs))
	for _, report := range s.runs {
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Finished.After(reports[j].Finished)
	})
	if len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}
