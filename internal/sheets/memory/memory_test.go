package memory

import (
	"context"
	"errors"
	"testing"

	"budgetsync/internal/core"
)

func TestStoreReplaceTab(t *testing.T) {
	s := New()
	ctx := context.Background()

	first := core.Grid{Rows: [][]string{{"a", "b"}, {"1", "2"}}, HeaderRows: 1}
	if err := s.ReplaceTab(ctx, "Budget", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.ReplaceTab(ctx, "Other", core.Grid{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Full overwrite: the second write leaves nothing of the first
	second := core.Grid{Rows: [][]string{{"x"}}}
	if err := s.ReplaceTab(ctx, "Budget", second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := s.Tab("Budget")
	if !ok || len(got.Rows) != 1 || got.Rows[0][0] != "x" || got.HeaderRows != 0 {
		t.Fatalf("unexpected tab: ok=%v grid=%+v", ok, got)
	}
	if tabs := s.Tabs(); len(tabs) != 2 || tabs[0] != "Budget" || tabs[1] != "Other" {
		t.Fatalf("unexpected tab order: %v", tabs)
	}
}

func TestStoreCopiesGrid(t *testing.T) {
	s := New()
	g := core.Grid{Rows: [][]string{{"a"}}}
	if err := s.ReplaceTab(context.Background(), "T", g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.Rows[0][0] = "mutated"

	got, _ := s.Tab("T")
	if got.Rows[0][0] != "a" {
		t.Fatalf("store shares caller memory: %v", got.Rows)
	}
}

func TestStoreRejectsBadInput(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.ReplaceTab(ctx, "  ", core.Grid{}); !errors.Is(err, core.ErrEmptyTabName) {
		t.Fatalf("expected ErrEmptyTabName, got %v", err)
	}
	ragged := core.Grid{Rows: [][]string{{"a", "b"}, {"c"}}}
	if err := s.ReplaceTab(ctx, "T", ragged); !errors.Is(err, core.ErrRaggedGrid) {
		t.Fatalf("expected ErrRaggedGrid, got %v", err)
	}
	if len(s.Tabs()) != 0 {
		t.Fatalf("rejected writes must not create tabs")
	}
}

func TestStoreFailOn(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := New().FailOn("Transactions", boom)

	if err := s.ReplaceTab(context.Background(), "Transactions", core.Grid{}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, ok := s.Tab("Transactions"); ok {
		t.Fatalf("failed write must not store the tab")
	}
}
