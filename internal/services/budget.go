// Package services turns raw ledger entities into report rows.
package services

import (
	"context"
	"fmt"
	"sort"

	"budgetsync/internal/core"
	"budgetsync/internal/ledger"
	"budgetsync/internal/log"
)

// BudgetService computes the per-category budget report for a month.
type BudgetService struct {
	source ledger.Source
	logger *log.Logger
}

func NewBudgetService(source ledger.Source, logger *log.Logger) *BudgetService {
	if logger == nil {
		logger = log.Discard()
	}
	return &BudgetService{
		source: source,
		logger: logger.WithComponent(log.ComponentBudget),
	}
}

// MonthlyBudget returns one row per visible category for the window, sorted by
// group then category name.
//
// Expense groups store spending as negative amounts; the row reports it as a
// positive ActualSpend and RunningBalance is the headroom left. Income groups
// keep the ledger sign and RunningBalance is the surplus over the budget.
func (s *BudgetService) MonthlyBudget(ctx context.Context, w core.MonthWindow) ([]core.CategoryReportRow, error) {
	groups, err := s.source.ListCategoryGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list category groups: %w", err)
	}
	s.logger.DebugContext(ctx, "Loaded category groups", "count", len(groups))

	allocations, err := s.source.ListBudgetAllocations(ctx, w.Start)
	if err != nil {
		return nil, fmt.Errorf("list budget allocations for %s: %w", w.Label, err)
	}
	budgeted := make(map[string]int64, len(allocations))
	for _, a := range allocations {
		budgeted[a.CategoryID] = a.Amount
	}

	categories, err := s.source.ListCategories(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	byGroup := make(map[string][]core.Category)
	for _, c := range categories {
		if c.Excluded() {
			continue
		}
		byGroup[c.GroupID] = append(byGroup[c.GroupID], c)
	}

	var rows []core.CategoryReportRow
	for _, g := range groups {
		if g.Excluded() {
			continue
		}
		members := byGroup[g.ID]
		if len(members) == 0 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool { return members[i].Name < members[j].Name })
		s.logger.DebugContext(ctx, "Processing group", log.FieldGroup, g.Name, log.FieldCategories, len(members))

		for _, c := range members {
			spent, err := s.categoryTotal(ctx, w, c.ID)
			if err != nil {
				return nil, err
			}
			rows = append(rows, budgetRow(g, c, budgeted[c.ID], spent))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Group != rows[j].Group {
			return rows[i].Group < rows[j].Group
		}
		return rows[i].Category < rows[j].Category
	})

	s.logger.InfoContext(ctx, "Built budget rows", log.FieldMonth, w.Label, log.FieldRows, len(rows))
	return rows, nil
}

// categoryTotal sums the category's transactions in cents. Split parents are
// skipped because their child legs already carry the amount.
func (s *BudgetService) categoryTotal(ctx context.Context, w core.MonthWindow, categoryID string) (int64, error) {
	txs, err := s.source.ListTransactions(ctx, ledger.TransactionQuery{
		Start:      w.Start,
		End:        w.End,
		CategoryID: categoryID,
	})
	if err != nil {
		return 0, fmt.Errorf("list transactions for category %s: %w", categoryID, err)
	}

	var total int64
	for _, t := range txs {
		if t.Counts() {
			total += t.Amount
		}
	}
	return total, nil
}

func budgetRow(g core.CategoryGroup, c core.Category, budgetCents, spentCents int64) core.CategoryReportRow {
	budgeted := core.CentsToDecimal(budgetCents)
	actual := core.CentsToDecimal(spentCents)
	if !g.IsIncome {
		actual = actual.Neg()
	}

	balance := budgeted.Sub(actual)
	if g.IsIncome {
		balance = actual.Sub(budgeted)
	}

	return core.CategoryReportRow{
		Group:          g.Name,
		Category:       c.Name,
		Budgeted:       budgeted,
		ActualSpend:    actual,
		RunningBalance: balance,
		IsIncome:       g.IsIncome,
	}
}
