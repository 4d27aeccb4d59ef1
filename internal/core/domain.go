package core

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Labels used by the account balance projection and the renderer.
const (
	OnBudget  = "On Budget"
	OffBudget = "Off Budget"
	Open      = "Open"
	Closed    = "Closed"
)

type (
	// CategoryGroup groups categories; income groups flip the sign convention.
	CategoryGroup struct {
		ID        string
		Name      string
		IsIncome  bool
		Hidden    bool
		Tombstone bool
	}

	Category struct {
		ID        string
		Name      string
		GroupID   string
		Hidden    bool
		Tombstone bool
	}

	// BudgetAllocation is the amount assigned to a category for one month.
	BudgetAllocation struct {
		CategoryID string
		Month      int // YYYYMM
		Amount     int64
	}

	// Transaction is a ledger transaction as stored by the budget backend.
	// Amounts are signed minor units: expenses are negative.
	Transaction struct {
		ID         string
		Date       LedgerDate
		Amount     int64
		CategoryID string
		AccountID  string
		PayeeName  string
		Notes      string
		Cleared    bool
		IsParent   bool // split header; only its child legs carry amounts that count
		Tombstone  bool
	}

	Account struct {
		ID        string
		Name      string
		Balance   *int64 // nil when the backend has no balance recorded
		OffBudget bool
		Closed    bool
		Tombstone bool
	}

	// CategoryReportRow is one line of a monthly budget report.
	CategoryReportRow struct {
		Group          string
		Category       string
		Budgeted       decimal.Decimal
		ActualSpend    decimal.Decimal
		RunningBalance decimal.Decimal
		IsIncome       bool
	}

	TransactionReportRow struct {
		Date        string
		Account     string
		Payee       string
		Category    string
		Description string
		Amount      decimal.Decimal
		Cleared     bool
	}

	AccountReportRow struct {
		Name    string
		Balance decimal.Decimal
		Type    string
		Status  string
	}

	// AccountSubtotals only ever include open accounts.
	AccountSubtotals struct {
		OnBudget  decimal.Decimal
		OffBudget decimal.Decimal
		AllOpen   decimal.Decimal
	}

	// Grid is a rectangular block of cells destined for one spreadsheet tab.
	// HeaderRows and TotalRows are formatting hints for sinks that support styling.
	Grid struct {
		Rows       [][]string
		HeaderRows int
		TotalRows  []int
	}
)

var (
	ErrEmptyTabName = errors.New("empty tab name")
	ErrRaggedGrid   = errors.New("grid rows have different widths")
)

// Excluded reports whether the group is left out of every report.
func (g CategoryGroup) Excluded() bool {
	return g.Hidden || g.Tombstone
}

func (c Category) Excluded() bool {
	return c.Hidden || c.Tombstone
}

// Counts reports whether the transaction's amount contributes to category sums.
func (t Transaction) Counts() bool {
	return !t.IsParent && !t.Tombstone
}

// BalanceCents returns the stored balance, or zero when none is recorded.
func (a Account) BalanceCents() int64 {
	if a.Balance == nil {
		return 0
	}
	return *a.Balance
}

// Width returns the number of columns, or zero for an empty grid.
func (g Grid) Width() int {
	if len(g.Rows) == 0 {
		return 0
	}
	return len(g.Rows[0])
}

// Validate checks that every row has the same number of cells.
func (g Grid) Validate() error {
	w := g.Width()
	for _, row := range g.Rows {
		if len(row) != w {
			return ErrRaggedGrid
		}
	}
	return nil
}
