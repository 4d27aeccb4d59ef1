// Package report turns projected rows into the cell grids published to the
// spreadsheet. It does no I/O.
package report

import (
	"budgetsync/internal/core"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Tab names in the target spreadsheet.
const (
	TabPreviousMonth   = "Previous Month Budget"
	TabCurrentMonth    = "Current Month Budget"
	TabTransactions    = "Transactions"
	TabAccountBalances = "Account Balances"
)

const currencyCode = "USD"

var (
	budgetHeader      = []string{"Group", "Category", "Budgeted", "Actual Spend", "Running Balance"}
	transactionHeader = []string{"Date", "Account", "Payee", "Category", "Description", "Amount", "Cleared"}
	accountHeader     = []string{"Account Name", "Balance", "Type", "Status"}
)

// FormatCurrency renders d with two decimals, a thousands separator and a
// dollar sign: 1234.5 -> "$1,234.50", -1234.5 -> "-$1,234.50".
func FormatCurrency(d decimal.Decimal) string {
	return money.New(core.DecimalToCents(d), currencyCode).Display()
}

// Totals sums the three amount columns over non-income rows.
func Totals(rows []core.CategoryReportRow) (budgeted, actual, balance decimal.Decimal) {
	for _, r := range rows {
		if r.IsIncome {
			continue
		}
		budgeted = budgeted.Add(r.Budgeted)
		actual = actual.Add(r.ActualSpend)
		balance = balance.Add(r.RunningBalance)
	}
	return budgeted, actual, balance
}

// Budget renders a monthly budget tab titled with the month label.
func Budget(label string, rows []core.CategoryReportRow) core.Grid {
	out := make([][]string, 0, len(rows)+3)
	out = append(out, titleRow(label, len(budgetHeader)), clone(budgetHeader))

	for _, r := range rows {
		out = append(out, []string{
			r.Group,
			r.Category,
			FormatCurrency(r.Budgeted),
			FormatCurrency(r.ActualSpend),
			FormatCurrency(r.RunningBalance),
		})
	}

	budgeted, actual, balance := Totals(rows)
	out = append(out, []string{
		"TOTAL",
		"",
		FormatCurrency(budgeted),
		FormatCurrency(actual),
		FormatCurrency(balance),
	})

	return core.Grid{Rows: out, HeaderRows: 2, TotalRows: []int{len(out) - 1}}
}

// Transactions renders the transaction listing under title.
func Transactions(title string, rows []core.TransactionReportRow) core.Grid {
	out := make([][]string, 0, len(rows)+2)
	out = append(out, titleRow(title, len(transactionHeader)), clone(transactionHeader))

	for _, r := range rows {
		cleared := ""
		if r.Cleared {
			cleared = "✓"
		}
		out = append(out, []string{
			r.Date,
			r.Account,
			r.Payee,
			r.Category,
			r.Description,
			FormatCurrency(r.Amount),
			cleared,
		})
	}

	return core.Grid{Rows: out, HeaderRows: 2}
}

// TransactionsTitle is the first row of the transactions tab.
func TransactionsTitle(label string) string {
	return "Transactions - " + label
}

// Accounts renders every account followed by the open-account subtotals.
func Accounts(rows []core.AccountReportRow, sub core.AccountSubtotals) core.Grid {
	width := len(accountHeader)
	out := make([][]string, 0, len(rows)+6)
	out = append(out, titleRow(TabAccountBalances, width), clone(accountHeader))

	for _, r := range rows {
		out = append(out, []string{r.Name, FormatCurrency(r.Balance), r.Type, r.Status})
	}

	out = append(out, make([]string, width))
	first := len(out)
	out = append(out,
		[]string{"TOTAL (On Budget)", FormatCurrency(sub.OnBudget), "", ""},
		[]string{"TOTAL (Off Budget)", FormatCurrency(sub.OffBudget), "", ""},
		[]string{"TOTAL (All Open Accounts)", FormatCurrency(sub.AllOpen), "", ""},
	)

	return core.Grid{Rows: out, HeaderRows: 2, TotalRows: []int{first, first + 1, first + 2}}
}

func titleRow(title string, width int) []string {
	row := make([]string, width)
	row[0] = title
	return row
}

func clone(row []string) []string {
	return append([]string(nil), row...)
}
