package services

import (
	"context"
	"errors"
	"testing"

	"budgetsync/internal/core"
	"budgetsync/internal/ledger/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cents(v int64) *int64 { return &v }

func TestAccountService_Balances(t *testing.T) {
	src := memory.New().AddAccounts(
		core.Account{ID: "1", Name: "Savings", Balance: cents(250000)},
		core.Account{ID: "2", Name: "Mortgage", Balance: cents(-10000000), OffBudget: true},
		core.Account{ID: "3", Name: "Old Checking", Balance: cents(50000), Closed: true},
		core.Account{ID: "4", Name: "Checking", Balance: cents(123456)},
		core.Account{ID: "5", Name: "Brokerage", Balance: cents(777700), OffBudget: true},
		core.Account{ID: "6", Name: "Old Loan", Balance: cents(-100), OffBudget: true, Closed: true},
		core.Account{ID: "7", Name: "", Balance: nil},
		core.Account{ID: "8", Name: "Deleted", Balance: cents(1), Tombstone: true},
	)

	rows, st, err := NewAccountService(src, nil).Balances(context.Background())
	require.NoError(t, err)

	var order []string
	for _, r := range rows {
		order = append(order, r.Type+"|"+r.Status+"|"+r.Name)
	}
	assert.Equal(t, []string{
		"On Budget|Open|Checking",
		"On Budget|Open|Savings",
		"On Budget|Open|Unknown",
		"On Budget|Closed|Old Checking",
		"Off Budget|Open|Brokerage",
		"Off Budget|Open|Mortgage",
		"Off Budget|Closed|Old Loan",
	}, order)

	assertDecimal(t, "0", rows[2].Balance, "null balance is zero")
	assertDecimal(t, "500", rows[3].Balance, "closed accounts are listed")

	assertDecimal(t, "3734.56", st.OnBudget)
	assertDecimal(t, "-92223", st.OffBudget)
	assertDecimal(t, "-88488.44", st.AllOpen)
}

func TestSubtotals_ClosedOnBudgetExcluded(t *testing.T) {
	rows := []core.AccountReportRow{
		{Name: "Closed", Balance: dec("500.00"), Type: core.OnBudget, Status: core.Closed},
	}
	st := Subtotals(rows)
	assert.True(t, st.OnBudget.IsZero())
	assert.True(t, st.AllOpen.IsZero())
}

func TestAccountService_Error(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := NewAccountService(memory.New().FailWith(boom), nil).Balances(context.Background())
	assert.ErrorIs(t, err, boom)
}
