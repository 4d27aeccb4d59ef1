package services

import (
	"context"
	"fmt"
	"sort"

	"budgetsync/internal/core"
	"budgetsync/internal/ledger"
	"budgetsync/internal/log"
)

// Fallback names for transactions without a linked account or category.
const (
	UnknownAccount = "Unknown"
	Uncategorized  = "Uncategorized"
)

// TransactionService flattens ledger transactions into display rows.
type TransactionService struct {
	source ledger.Source
	logger *log.Logger
}

func NewTransactionService(source ledger.Source, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		source: source,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// List returns the window's transactions, newest first. Split parents and
// deleted transactions are left out.
func (s *TransactionService) List(ctx context.Context, w core.MonthWindow) ([]core.TransactionReportRow, error) {
	txs, err := s.source.ListTransactions(ctx, ledger.TransactionQuery{
		Start:          w.Start,
		End:            w.End,
		ExcludeParents: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	s.logger.DebugContext(ctx, "Loaded transactions", log.FieldMonth, w.Label, "count", len(txs))

	// Deleted accounts and categories still name the transactions recorded against them.
	accounts, err := s.source.ListAccounts(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accountNames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}

	categories, err := s.source.ListCategories(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categoryNames := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	rows := make([]core.TransactionReportRow, 0, len(txs))
	for _, t := range txs {
		if !t.Counts() {
			continue
		}
		rows = append(rows, core.TransactionReportRow{
			Date:        t.Date.Display(),
			Account:     lookup(accountNames, t.AccountID, UnknownAccount),
			Payee:       t.PayeeName,
			Category:    lookup(categoryNames, t.CategoryID, Uncategorized),
			Description: t.Notes,
			Amount:      core.CentsToDecimal(t.Amount),
			Cleared:     t.Cleared,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })

	s.logger.InfoContext(ctx, "Built transaction rows", log.FieldMonth, w.Label, log.FieldRows, len(rows))
	return rows, nil
}

// lookup resolves a linked entity's name. An unlinked id gets the fallback;
// a linked entity whose id the ledger no longer knows does too.
func lookup(names map[string]string, id, fallback string) string {
	if id == "" {
		return fallback
	}
	name, ok := names[id]
	if !ok {
		return fallback
	}
	return name
}
