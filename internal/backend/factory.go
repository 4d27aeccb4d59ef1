package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"budgetsync/internal/actual"
	"budgetsync/internal/ledger/sqlite"
	"budgetsync/internal/log"
	"budgetsync/internal/sheets"
	"budgetsync/internal/sheets/console"
	gsheet "budgetsync/internal/sheets/google"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateLedger implements Factory.CreateLedger
func (f *DefaultFactory) CreateLedger(ctx context.Context, config Config) (*LedgerResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Ledger {
	case LocalLedger:
		return f.openLedger(config.BudgetPath, nil)
	case RemoteLedger:
		return f.createRemoteLedger(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", config.Ledger)
	}
}

func (f *DefaultFactory) createRemoteLedger(ctx context.Context, config Config) (*LedgerResult, error) {
	dir, err := os.MkdirTemp(config.TempDir, "budgetsync-*")
	if err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}
	removeDir := func() error { return os.RemoveAll(dir) }

	client, err := actual.NewClient(config.ServerURL, nil, config.HTTPTimeout, f.logger)
	if err != nil {
		_ = removeDir()
		return nil, err
	}

	path, err := client.FetchBudget(ctx, actual.FetchOptions{
		Password:           config.Password,
		File:               config.File,
		EncryptionPassword: config.EncryptionPassword,
		Dir:                dir,
	})
	if err != nil {
		_ = removeDir()
		return nil, fmt.Errorf("download budget: %w", err)
	}

	return f.openLedger(path, removeDir)
}

// openLedger opens the budget database at path. after runs once the
// database is closed.
func (f *DefaultFactory) openLedger(path string, after CleanupFunc) (*LedgerResult, error) {
	store, err := sqlite.Open(path)
	if err != nil {
		if after != nil {
			_ = after()
		}
		return nil, fmt.Errorf("failed to open budget database: %w", err)
	}

	f.logger.Info("Opened budget database", log.FieldPath, path)

	return &LedgerResult{
		Source: store,
		Cleanup: func() error {
			err := store.Close()
			if after != nil {
				err = errors.Join(err, after())
			}
			return err
		},
	}, nil
}

// CreateSink implements Factory.CreateSink. out only receives console output.
func (f *DefaultFactory) CreateSink(ctx context.Context, config Config, out io.Writer) (sheets.TabWriter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Sink {
	case ConsoleSink:
		if out == nil {
			out = os.Stdout
		}
		f.logger.Info("Dry run: tabs are printed, nothing is published")
		return console.New(out), nil
	case GoogleSink:
		cli, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.SpreadsheetID,
			CredentialsFile: config.CredentialsFile,
			CredentialsJSON: config.CredentialsJSON,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets sink", log.FieldSpreadsheet, config.SpreadsheetID)
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", config.Sink)
	}
}
