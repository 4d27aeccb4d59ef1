package backend

import (
	"context"
	"io"

	"budgetsync/internal/ledger"
	"budgetsync/internal/sheets"
)

// CleanupFunc releases whatever a backend holds open
type CleanupFunc func() error

// LedgerResult contains the ledger source and its cleanup function
type LedgerResult struct {
	Source  ledger.Source
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *LedgerResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates the ledger source and the tab sink for a run
type Factory interface {
	CreateLedger(ctx context.Context, config Config) (*LedgerResult, error)
	CreateSink(ctx context.Context, config Config, out io.Writer) (sheets.TabWriter, error)
}

// LedgerType selects where the budget database comes from
type LedgerType string

const (
	// RemoteLedger downloads the budget from an Actual server
	RemoteLedger LedgerType = "remote"
	// LocalLedger opens a db.sqlite already on disk
	LocalLedger LedgerType = "local"
)

// SinkType selects where rendered tabs go
type SinkType string

const (
	GoogleSink  SinkType = "google"
	ConsoleSink SinkType = "console"
)

func (t LedgerType) String() string { return string(t) }

func (t LedgerType) IsValid() bool {
	return t == RemoteLedger || t == LocalLedger
}

func (t SinkType) String() string { return string(t) }

func (t SinkType) IsValid() bool {
	return t == GoogleSink || t == ConsoleSink
}
