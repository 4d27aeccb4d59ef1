// Package sqlite reads an Actual Budget database file (db.sqlite) and
// exposes it as a ledger.Source.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"budgetsync/internal/core"
	"budgetsync/internal/ledger"

	_ "modernc.org/sqlite"
)

// Budget tables. Envelope budgets keep their allocations in zero_budgets,
// tracking (report) budgets in reflect_budgets.
const (
	envelopeBudgetTable = "zero_budgets"
	trackingBudgetTable = "reflect_budgets"
)

type Store struct {
	db *sql.DB
}

var _ ledger.Source = (*Store)(nil)

// Open opens the budget database at path read-only. A missing file is an
// error; it is never created.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open budget database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping budget database: %w", err)
	}

	return &Store{db: db}, nil
}

func readOnlyDSN(path string) string {
	return "file:" + path + "?mode=ro"
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ListCategoryGroups(ctx context.Context) ([]core.CategoryGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(is_income, 0), COALESCE(hidden, 0), COALESCE(tombstone, 0)
		FROM category_groups
		ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("query category groups: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryGroup
	for rows.Next() {
		var g core.CategoryGroup
		var income, hidden, tombstone int64
		if err := rows.Scan(&g.ID, &g.Name, &income, &hidden, &tombstone); err != nil {
			return nil, fmt.Errorf("scan category group: %w", err)
		}
		g.IsIncome, g.Hidden, g.Tombstone = income != 0, hidden != 0, tombstone != 0
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) ListCategories(ctx context.Context, includeDeleted bool) ([]core.Category, error) {
	query := `
		SELECT id, COALESCE(name, ''), COALESCE(cat_group, ''), COALESCE(hidden, 0), COALESCE(tombstone, 0)
		FROM categories`
	if !includeDeleted {
		query += ` WHERE COALESCE(tombstone, 0) = 0`
	}
	query += ` ORDER BY sort_order, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var hidden, tombstone int64
		if err := rows.Scan(&c.ID, &c.Name, &c.GroupID, &hidden, &tombstone); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Hidden, c.Tombstone = hidden != 0, tombstone != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListBudgetAllocations(ctx context.Context, month time.Time) ([]core.BudgetAllocation, error) {
	table, err := s.budgetTable(ctx)
	if err != nil {
		return nil, err
	}

	// table is one of two constants, never user input
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(category, ''), month, COALESCE(amount, 0)
		FROM `+table+`
		WHERE month = ?`, core.MonthKey(month))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []core.BudgetAllocation
	for rows.Next() {
		var a core.BudgetAllocation
		var m int64
		if err := rows.Scan(&a.CategoryID, &m, &a.Amount); err != nil {
			return nil, fmt.Errorf("scan budget allocation: %w", err)
		}
		a.Month = int(m)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListTransactions(ctx context.Context, q ledger.TransactionQuery) ([]core.Transaction, error) {
	var where strings.Builder
	where.WriteString(`COALESCE(t.tombstone, 0) = 0 AND t.date BETWEEN ? AND ?`)
	args := []any{core.DayKey(q.Start), core.DayKey(q.End)}
	if q.CategoryID != "" {
		where.WriteString(` AND t.category = ?`)
		args = append(args, q.CategoryID)
	}
	if q.ExcludeParents {
		where.WriteString(` AND COALESCE(t.isParent, 0) = 0`)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, CAST(t.date AS TEXT), COALESCE(t.amount, 0), COALESCE(t.category, ''),
		       COALESCE(t.acct, ''), COALESCE(p.name, ''), COALESCE(t.notes, ''),
		       COALESCE(t.cleared, 0), COALESCE(t.isParent, 0), COALESCE(t.tombstone, 0)
		FROM transactions t
		LEFT JOIN payees p ON p.id = t.description
		WHERE `+where.String()+`
		ORDER BY t.date DESC, t.sort_order DESC, t.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date sql.NullString
		var cleared, parent, tombstone int64
		if err := rows.Scan(&t.ID, &date, &t.Amount, &t.CategoryID, &t.AccountID,
			&t.PayeeName, &t.Notes, &cleared, &parent, &tombstone); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = core.LedgerDate(date.String)
		t.Cleared, t.IsParent, t.Tombstone = cleared != 0, parent != 0, tombstone != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListAccounts(ctx context.Context, includeDeleted bool) ([]core.Account, error) {
	query := `
		SELECT id, COALESCE(name, ''), balance_current, COALESCE(offbudget, 0), COALESCE(closed, 0), COALESCE(tombstone, 0)
		FROM accounts`
	if !includeDeleted {
		query += ` WHERE COALESCE(tombstone, 0) = 0`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var balance sql.NullInt64
		var offbudget, closed, tombstone int64
		if err := rows.Scan(&a.ID, &a.Name, &balance, &offbudget, &closed, &tombstone); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		if balance.Valid {
			b := balance.Int64
			a.Balance = &b
		}
		a.OffBudget, a.Closed, a.Tombstone = offbudget != 0, closed != 0, tombstone != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// budgetTable picks the allocation table from the budgetType preference.
// Files without a preferences table are envelope budgets.
func (s *Store) budgetTable(ctx context.Context) (string, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'preferences'`).Scan(&n)
	if err != nil {
		return "", fmt.Errorf("inspect schema: %w", err)
	}
	if n == 0 {
		return envelopeBudgetTable, nil
	}

	var value sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE id = 'budgetType'`).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return envelopeBudgetTable, nil
	case err != nil:
		return "", fmt.Errorf("read budget type: %w", err)
	}
	if strings.TrimSpace(value.String) == "report" {
		return trackingBudgetTable, nil
	}
	return envelopeBudgetTable, nil
}
