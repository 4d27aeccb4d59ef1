package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetsync/internal/core"
	"budgetsync/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ListTransactionsFilters(t *testing.T) {
	s := New().AddTransactions(
		core.Transaction{ID: "in", Date: "20240110", CategoryID: "food"},
		core.Transaction{ID: "first-day", Date: "20240101", CategoryID: "food"},
		core.Transaction{ID: "last-day", Date: "20240131", CategoryID: "food"},
		core.Transaction{ID: "outside", Date: "20240201", CategoryID: "food"},
		core.Transaction{ID: "other-cat", Date: "20240110", CategoryID: "rent"},
		core.Transaction{ID: "parent", Date: "20240110", CategoryID: "food", IsParent: true},
		core.Transaction{ID: "deleted", Date: "20240110", CategoryID: "food", Tombstone: true},
		core.Transaction{ID: "garbled", Date: "abc", CategoryID: "food"},
	)

	q := ledger.TransactionQuery{
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		CategoryID: "food",
	}
	got, err := s.ListTransactions(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"in", "first-day", "last-day", "parent"}, ids(got))

	q.ExcludeParents = true
	got, err = s.ListTransactions(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"in", "first-day", "last-day"}, ids(got))

	q.CategoryID = ""
	got, err = s.ListTransactions(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"in", "first-day", "last-day", "other-cat"}, ids(got))
}

func TestStore_DeletedFilters(t *testing.T) {
	s := New().
		AddCategories(core.Category{ID: "a"}, core.Category{ID: "b", Tombstone: true}).
		AddAccounts(core.Account{ID: "x"}, core.Account{ID: "y", Tombstone: true})
	ctx := context.Background()

	cats, err := s.ListCategories(ctx, false)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
	cats, err = s.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	accts, err := s.ListAccounts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, accts, 1)
	accts, err = s.ListAccounts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, accts, 2)
}

func TestStore_AllocationsByMonth(t *testing.T) {
	s := New().AddAllocations(
		core.BudgetAllocation{CategoryID: "a", Month: 202401, Amount: 100},
		core.BudgetAllocation{CategoryID: "a", Month: 202402, Amount: 200},
	)
	got, err := s.ListBudgetAllocations(context.Background(), time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(200), got[0].Amount)
}

func TestStore_FailWith(t *testing.T) {
	boom := errors.New("boom")
	s := New().FailWith(boom)
	_, err := s.ListCategoryGroups(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = s.ListAccounts(context.Background(), false)
	assert.ErrorIs(t, err, boom)
}

func ids(ts []core.Transaction) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}
