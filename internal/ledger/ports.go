// Package ledger declares the read-only query surface the report builders
// use to pull entities out of the budgeting backend.
package ledger

import (
	"context"
	"time"

	"budgetsync/internal/core"
)

// TransactionQuery selects transactions dated within [Start, End], both ends
// included. An empty CategoryID matches every category.
type TransactionQuery struct {
	Start          time.Time
	End            time.Time
	CategoryID     string
	ExcludeParents bool
}

// Source is implemented by every ledger adapter. Tombstoned transactions
// are never returned.
type Source interface {
	ListCategoryGroups(ctx context.Context) ([]core.CategoryGroup, error)
	ListCategories(ctx context.Context, includeDeleted bool) ([]core.Category, error)
	// ListBudgetAllocations returns the allocations for the calendar month containing month.
	ListBudgetAllocations(ctx context.Context, month time.Time) ([]core.BudgetAllocation, error)
	ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error)
	ListAccounts(ctx context.Context, includeDeleted bool) ([]core.Account, error)
}
