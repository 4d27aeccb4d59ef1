package services

import (
	"context"
	"fmt"
	"sort"

	"budgetsync/internal/core"
	"budgetsync/internal/ledger"
	"budgetsync/internal/log"
)

// AccountService lists account balances.
type AccountService struct {
	source ledger.Source
	logger *log.Logger
}

func NewAccountService(source ledger.Source, logger *log.Logger) *AccountService {
	if logger == nil {
		logger = log.Discard()
	}
	return &AccountService{
		source: source,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// Balances returns every live account, on-budget first, open before closed,
// then by name, along with subtotals over the open accounts.
func (s *AccountService) Balances(ctx context.Context) ([]core.AccountReportRow, core.AccountSubtotals, error) {
	accounts, err := s.source.ListAccounts(ctx, false)
	if err != nil {
		return nil, core.AccountSubtotals{}, fmt.Errorf("list accounts: %w", err)
	}

	rows := make([]core.AccountReportRow, 0, len(accounts))
	for _, a := range accounts {
		if a.Tombstone {
			continue
		}
		rows = append(rows, accountRow(a))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Type != b.Type {
			return a.Type == core.OnBudget
		}
		if a.Status != b.Status {
			return a.Status == core.Open
		}
		return a.Name < b.Name
	})

	s.logger.InfoContext(ctx, "Built account rows", log.FieldRows, len(rows))
	return rows, Subtotals(rows), nil
}

// Subtotals sums balances of open accounts. Closed accounts never count.
func Subtotals(rows []core.AccountReportRow) core.AccountSubtotals {
	var st core.AccountSubtotals
	for _, r := range rows {
		if r.Status != core.Open {
			continue
		}
		switch r.Type {
		case core.OnBudget:
			st.OnBudget = st.OnBudget.Add(r.Balance)
		case core.OffBudget:
			st.OffBudget = st.OffBudget.Add(r.Balance)
		}
		st.AllOpen = st.AllOpen.Add(r.Balance)
	}
	return st
}

func accountRow(a core.Account) core.AccountReportRow {
	row := core.AccountReportRow{
		Name:    a.Name,
		Balance: core.CentsToDecimal(a.BalanceCents()),
		Type:    core.OnBudget,
		Status:  core.Open,
	}
	if row.Name == "" {
		row.Name = UnknownAccount
	}
	if a.OffBudget {
		row.Type = core.OffBudget
	}
	if a.Closed {
		row.Status = core.Closed
	}
	return row
}
