package backend

import (
	"fmt"
	"time"

	"budgetsync/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Ledger LedgerType
	Sink   SinkType

	// Remote ledger
	ServerURL          string
	Password           string
	File               string
	EncryptionPassword string
	HTTPTimeout        time.Duration
	// TempDir is the parent of the download directory; empty means os.TempDir
	TempDir string

	// Local ledger
	BudgetPath string

	// Google sink
	SpreadsheetID   string
	CredentialsFile string
	CredentialsJSON string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	ledgerType := RemoteLedger
	if appConfig.UseLocalBudget() {
		ledgerType = LocalLedger
	}
	sinkType := GoogleSink
	if appConfig.DryRun {
		sinkType = ConsoleSink
	}

	return Config{
		Ledger: ledgerType,
		Sink:   sinkType,

		ServerURL:          appConfig.ActualServerURL,
		Password:           appConfig.ActualPassword,
		File:               appConfig.ActualFile,
		EncryptionPassword: appConfig.ActualEncryptionPassword,
		HTTPTimeout:        appConfig.HTTPTimeout,

		BudgetPath: appConfig.ActualBudgetPath,

		SpreadsheetID:   appConfig.GoogleSheetID,
		CredentialsFile: appConfig.GoogleCredentialsFile,
		CredentialsJSON: appConfig.GoogleCredentialsJSON,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Ledger.IsValid() {
		return fmt.Errorf("invalid ledger type: %s", c.Ledger)
	}
	if !c.Sink.IsValid() {
		return fmt.Errorf("invalid sink type: %s", c.Sink)
	}

	switch c.Ledger {
	case RemoteLedger:
		if c.ServerURL == "" || c.Password == "" || c.File == "" {
			return fmt.Errorf("server url, password and file are required for the remote ledger")
		}
	case LocalLedger:
		if c.BudgetPath == "" {
			return fmt.Errorf("budget path is required for the local ledger")
		}
	}

	if c.Sink == GoogleSink {
		if c.SpreadsheetID == "" {
			return fmt.Errorf("spreadsheet id is required for the google sink")
		}
		if c.CredentialsFile == "" && c.CredentialsJSON == "" {
			return fmt.Errorf("credentials are required for the google sink")
		}
	}

	return nil
}
