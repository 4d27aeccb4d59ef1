package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budgetsync/internal/config"
	"budgetsync/internal/core"
	"budgetsync/internal/ledger"
	"budgetsync/internal/log"
	"budgetsync/internal/report"
	"budgetsync/internal/services"
	"budgetsync/internal/sheets"
	"budgetsync/internal/trace"

	"golang.org/x/sync/errgroup"
)

// Stage names the half of a run an error came from.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StagePublish Stage = "publish"
)

// Report names, used in logs and errors.
const (
	ReportPreviousBudget = "previous month budget"
	ReportCurrentBudget  = "current month budget"
	ReportTransactions   = "transactions"
	ReportAccounts       = "account balances"
)

// StageError reports which report failed and whether it failed while
// reading the ledger or while writing the spreadsheet.
type StageError struct {
	Stage  Stage
	Report string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Report, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options controls which reports a run produces.
type Options struct {
	ExportTransactions bool
	TransactionsRange  config.DateRange
}

// OptionsFromConfig picks the run options out of the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ExportTransactions: cfg.ExportTransactions,
		TransactionsRange:  cfg.TransactionsDateRange,
	}
}

// Result lists the tabs a run published, in order.
type Result struct {
	Tabs []PublishedTab
}

type PublishedTab struct {
	Name string
	Rows int
}

// SyncWorker runs one export: it reads every report from the ledger, then
// replaces the matching spreadsheet tabs.
type SyncWorker struct {
	budgets      *services.BudgetService
	transactions *services.TransactionService
	accounts     *services.AccountService
	sink         sheets.TabWriter
	opts         Options
	now          func() time.Time
	logger       *log.Logger
}

func NewSyncWorker(source ledger.Source, sink sheets.TabWriter, opts Options, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.TransactionsRange == "" {
		opts.TransactionsRange = config.CurrentMonth
	}
	return &SyncWorker{
		budgets:      services.NewBudgetService(source, logger),
		transactions: services.NewTransactionService(source, logger),
		accounts:     services.NewAccountService(source, logger),
		sink:         sink,
		opts:         opts,
		now:          time.Now,
		logger:       logger.WithComponent(log.ComponentWorker),
	}
}

// WithClock replaces the clock that decides the current month.
func (w *SyncWorker) WithClock(now func() time.Time) *SyncWorker {
	w.now = now
	return w
}

// tab is one rendered report waiting to be published.
type tab struct {
	report string
	name   string
	grid   core.Grid
}

// Run extracts every report before publishing any of them, so a ledger
// failure leaves the spreadsheet untouched. Publishing is sequential and
// stops at the first failed tab.
func (w *SyncWorker) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := trace.RunID(ctx)
	if runID == "" {
		runID = trace.GenerateRunID()
		ctx = trace.WithRunID(ctx, runID)
	}
	now := w.now()
	previous := core.MonthAt(now, -1)
	current := core.MonthAt(now, 0)

	w.logger.InfoContext(ctx, "Starting sync",
		log.FieldRunID, runID,
		"previous_month", previous.Label,
		"current_month", current.Label,
		"export_transactions", w.opts.ExportTransactions)

	tabs, err := w.extract(ctx, previous, current)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, t := range tabs {
		if err := ctx.Err(); err != nil {
			return result, &StageError{Stage: StagePublish, Report: t.report, Err: err}
		}
		if err := w.sink.ReplaceTab(ctx, t.name, t.grid); err != nil {
			fields := log.NewFields().
				WithOperation(log.OpPublish).
				WithStage(string(StagePublish)).
				WithReport(t.report, t.name).
				WithError(err)
			w.logger.ErrorContext(ctx, "Failed to publish tab", fields.ToSlice()...)
			return result, &StageError{Stage: StagePublish, Report: t.report, Err: err}
		}
		w.logger.InfoContext(ctx, "Published tab", log.FieldTab, t.name, log.FieldRows, len(t.grid.Rows))
		result.Tabs = append(result.Tabs, PublishedTab{Name: t.name, Rows: len(t.grid.Rows)})
	}

	w.logger.InfoContext(ctx, "Sync completed",
		log.FieldRunID, runID,
		"tabs", len(result.Tabs),
		log.FieldDuration, time.Since(started).Milliseconds())
	return result, nil
}

// job builds one report's grid.
type job struct {
	report string
	name   string
	build  func(ctx context.Context) (core.Grid, error)
}

// extract builds every report concurrently. The returned tabs are in
// publishing order whatever order the jobs finish in.
func (w *SyncWorker) extract(ctx context.Context, previous, current core.MonthWindow) ([]tab, error) {
	jobs := []job{
		w.budgetJob(ReportPreviousBudget, report.TabPreviousMonth, previous),
		w.budgetJob(ReportCurrentBudget, report.TabCurrentMonth, current),
	}
	if w.opts.ExportTransactions {
		jobs = append(jobs, w.transactionsJob(TransactionWindow(w.opts.TransactionsRange, previous, current)))
	}
	jobs = append(jobs, w.accountsJob())

	tabs := make([]tab, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			grid, err := j.build(gctx)
			if err != nil {
				// A sibling failed first; its error is the one reported.
				if errors.Is(err, context.Canceled) && gctx.Err() != nil {
					return &StageError{Stage: StageFetch, Report: j.report, Err: err}
				}
				return w.fetchError(ctx, j.report, err)
			}
			tabs[i] = tab{report: j.report, name: j.name, grid: grid}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tabs, nil
}

func (w *SyncWorker) budgetJob(reportName, tabName string, window core.MonthWindow) job {
	return job{report: reportName, name: tabName, build: func(ctx context.Context) (core.Grid, error) {
		w.logFetch(ctx, reportName, tabName, window)
		rows, err := w.budgets.MonthlyBudget(ctx, window)
		if err != nil {
			return core.Grid{}, err
		}
		return report.Budget(window.Label, rows), nil
	}}
}

func (w *SyncWorker) transactionsJob(window core.MonthWindow) job {
	return job{report: ReportTransactions, name: report.TabTransactions, build: func(ctx context.Context) (core.Grid, error) {
		w.logFetch(ctx, ReportTransactions, report.TabTransactions, window)
		rows, err := w.transactions.List(ctx, window)
		if err != nil {
			return core.Grid{}, err
		}
		return report.Transactions(report.TransactionsTitle(window.Label), rows), nil
	}}
}

func (w *SyncWorker) accountsJob() job {
	return job{report: ReportAccounts, name: report.TabAccountBalances, build: func(ctx context.Context) (core.Grid, error) {
		w.logger.DebugContext(ctx, "Fetching report", log.FieldOperation, log.OpFetch, log.FieldReport, ReportAccounts)
		rows, sub, err := w.accounts.Balances(ctx)
		if err != nil {
			return core.Grid{}, err
		}
		return report.Accounts(rows, sub), nil
	}}
}

func (w *SyncWorker) logFetch(ctx context.Context, reportName, tabName string, window core.MonthWindow) {
	fields := log.NewFields().
		WithOperation(log.OpFetch).
		WithReport(reportName, tabName).
		WithWindow(window.Label, window.Start.Format(time.DateOnly), window.End.Format(time.DateOnly))
	w.logger.DebugContext(ctx, "Fetching report", fields.ToSlice()...)
}

func (w *SyncWorker) fetchError(ctx context.Context, reportName string, err error) error {
	fields := log.NewFields().
		WithOperation(log.OpFetch).
		WithStage(string(StageFetch)).
		WithReport(reportName, "").
		WithError(err)
	w.logger.ErrorContext(ctx, "Failed to fetch report", fields.ToSlice()...)
	return &StageError{Stage: StageFetch, Report: reportName, Err: err}
}

// TransactionWindow maps the configured range onto the two month windows.
func TransactionWindow(r config.DateRange, previous, current core.MonthWindow) core.MonthWindow {
	switch r {
	case config.PreviousMonth:
		return previous
	case config.BothMonths:
		return core.Span(previous, current)
	default:
		return current
	}
}

// IsStage reports whether err came from the given stage.
func IsStage(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}
