package memory

import (
	"context"
	"strings"
	"sync"

	"budgetsync/internal/core"
	ports "budgetsync/internal/sheets"
)

// Store keeps published tabs in memory, in the order they were first written.
type Store struct {
	mu    sync.Mutex
	tabs  map[string]core.Grid
	order []string
	fail  map[string]error
}

var _ ports.TabWriter = (*Store)(nil)

func New() *Store {
	return &Store{tabs: map[string]core.Grid{}, fail: map[string]error{}}
}

// FailOn makes every later write to the named tab return err.
func (s *Store) FailOn(name string, err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[name] = err
	return s
}

// ReplaceTab stores a copy of grid under name, dropping what was there.
func (s *Store) ReplaceTab(_ context.Context, name string, grid core.Grid) error {
	if strings.TrimSpace(name) == "" {
		return core.ErrEmptyTabName
	}
	if err := grid.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[name]; err != nil {
		return err
	}
	if _, ok := s.tabs[name]; !ok {
		s.order = append(s.order, name)
	}
	s.tabs[name] = copyGrid(grid)
	return nil
}

// Tab returns the grid last written to name.
func (s *Store) Tab(name string) (core.Grid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.tabs[name]
	return copyGrid(g), ok
}

// Tabs lists the tab names in first-write order.
func (s *Store) Tabs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func copyGrid(g core.Grid) core.Grid {
	rows := make([][]string, len(g.Rows))
	for i, r := range g.Rows {
		rows[i] = append([]string(nil), r...)
	}
	return core.Grid{
		Rows:       rows,
		HeaderRows: g.HeaderRows,
		TotalRows:  append([]int(nil), g.TotalRows...),
	}
}
