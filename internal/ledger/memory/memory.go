package memory

import (
	"context"
	"sync"
	"time"

	"budgetsync/internal/core"
	"budgetsync/internal/ledger"
)

// Store is an in-memory ledger. It applies the same filters as the database
// adapter so report builders behave identically on either.
type Store struct {
	mu           sync.Mutex
	groups       []core.CategoryGroup
	categories   []core.Category
	allocations  []core.BudgetAllocation
	transactions []core.Transaction
	accounts     []core.Account
	err          error
}

var _ ledger.Source = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) AddGroups(groups ...core.CategoryGroup) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, groups...)
	return s
}

func (s *Store) AddCategories(categories ...core.Category) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, categories...)
	return s
}

func (s *Store) AddAllocations(allocations ...core.BudgetAllocation) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocations = append(s.allocations, allocations...)
	return s
}

func (s *Store) AddTransactions(transactions ...core.Transaction) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, transactions...)
	return s
}

func (s *Store) AddAccounts(accounts ...core.Account) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, accounts...)
	return s
}

// FailWith makes every subsequent query return err.
func (s *Store) FailWith(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

func (s *Store) ListCategoryGroups(_ context.Context) ([]core.CategoryGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.CategoryGroup(nil), s.groups...), nil
}

func (s *Store) ListCategories(_ context.Context, includeDeleted bool) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.Tombstone && !includeDeleted {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) ListBudgetAllocations(_ context.Context, month time.Time) ([]core.BudgetAllocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	key := core.MonthKey(month)
	var out []core.BudgetAllocation
	for _, a := range s.allocations {
		if a.Month == key {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, q ledger.TransactionQuery) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	window := core.MonthWindow{Start: q.Start, End: q.End}
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.Tombstone {
			continue
		}
		if q.ExcludeParents && t.IsParent {
			continue
		}
		if q.CategoryID != "" && t.CategoryID != q.CategoryID {
			continue
		}
		day, ok := t.Date.Key()
		if !ok || !window.Contains(day) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ListAccounts(_ context.Context, includeDeleted bool) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if a.Tombstone && !includeDeleted {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
