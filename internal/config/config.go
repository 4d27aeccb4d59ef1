package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DateRange selects which months the transaction export covers.
type DateRange string

const (
	CurrentMonth  DateRange = "current_month"
	PreviousMonth DateRange = "previous_month"
	BothMonths    DateRange = "both_months"
)

// Environment variable names.
const (
	EnvActualServerURL          = "ACTUAL_SERVER_URL"
	EnvActualPassword           = "ACTUAL_PASSWORD"
	EnvActualFile               = "ACTUAL_FILE"
	EnvActualEncryptionPassword = "ACTUAL_ENCRYPTION_PASSWORD"
	EnvActualBudgetPath         = "ACTUAL_BUDGET_PATH"
	EnvGoogleSheetID            = "GOOGLE_SHEET_ID"
	EnvGoogleCredentialsFile    = "GOOGLE_CREDENTIALS_FILE"
	EnvGoogleCredentialsJSON    = "GOOGLE_CREDENTIALS_JSON"
	EnvExportTransactions       = "EXPORT_TRANSACTIONS"
	EnvTransactionsDateRange    = "TRANSACTIONS_DATE_RANGE"
	EnvHTTPTimeout              = "HTTP_TIMEOUT"
	EnvLogLevel                 = "LOG_LEVEL"
	EnvLogFormat                = "LOG_FORMAT"
)

// Viper keys that are bound to flags rather than environment variables.
const (
	KeyDryRun = "dry_run"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("configuration validation failed")

type Config struct {
	// Actual Budget server
	ActualServerURL          string
	ActualPassword           string
	ActualFile               string
	ActualEncryptionPassword string

	// Local budget database; when set the server is not contacted
	ActualBudgetPath string

	// Google Sheets
	GoogleSheetID         string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Transaction export
	ExportTransactions    bool
	TransactionsDateRange DateRange

	HTTPTimeout time.Duration
	LogLevel    string
	LogFormat   string

	// DryRun prints the tabs instead of publishing them
	DryRun bool
}

// Defaults registers default values and environment bindings on v.
func Defaults(v *viper.Viper) {
	for _, key := range []string{
		EnvActualServerURL,
		EnvActualPassword,
		EnvActualFile,
		EnvActualEncryptionPassword,
		EnvActualBudgetPath,
		EnvGoogleSheetID,
		EnvGoogleCredentialsFile,
		EnvGoogleCredentialsJSON,
		EnvExportTransactions,
		EnvTransactionsDateRange,
		EnvHTTPTimeout,
		EnvLogLevel,
		EnvLogFormat,
	} {
		_ = v.BindEnv(key)
	}
	v.SetDefault(EnvExportTransactions, "false")
	v.SetDefault(EnvTransactionsDateRange, string(CurrentMonth))
	v.SetDefault(EnvHTTPTimeout, "60s")
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvLogFormat, "text")
	v.SetDefault(KeyDryRun, false)
}

// Load reads the configuration from v. Unrecognised optional values fall
// back to their defaults with a warning instead of failing the run.
func Load(v *viper.Viper, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &Config{
		ActualServerURL:          strings.TrimSpace(v.GetString(EnvActualServerURL)),
		ActualPassword:           v.GetString(EnvActualPassword),
		ActualFile:               strings.TrimSpace(v.GetString(EnvActualFile)),
		ActualEncryptionPassword: v.GetString(EnvActualEncryptionPassword),
		ActualBudgetPath:         strings.TrimSpace(v.GetString(EnvActualBudgetPath)),

		GoogleSheetID:         strings.TrimSpace(v.GetString(EnvGoogleSheetID)),
		GoogleCredentialsFile: strings.TrimSpace(v.GetString(EnvGoogleCredentialsFile)),
		GoogleCredentialsJSON: strings.TrimSpace(v.GetString(EnvGoogleCredentialsJSON)),

		ExportTransactions: parseFlag(v.GetString(EnvExportTransactions)),

		LogLevel:  v.GetString(EnvLogLevel),
		LogFormat: v.GetString(EnvLogFormat),
		DryRun:    v.GetBool(KeyDryRun),
	}

	raw := v.GetString(EnvTransactionsDateRange)
	rng, ok := ParseDateRange(raw)
	if !ok {
		logger.Warn("Unknown transactions date range, using default",
			"value", raw,
			"default", CurrentMonth)
	}
	cfg.TransactionsDateRange = rng

	timeout, err := time.ParseDuration(v.GetString(EnvHTTPTimeout))
	if err != nil || timeout <= 0 {
		logger.Warn("Invalid HTTP timeout, using default",
			"value", v.GetString(EnvHTTPTimeout),
			"default", "60s")
		timeout = 60 * time.Second
	}
	cfg.HTTPTimeout = timeout

	return cfg
}

// ParseDateRange maps a selector to a DateRange. Matching is exact and
// case-sensitive; unknown values yield CurrentMonth and false.
func ParseDateRange(s string) (DateRange, bool) {
	switch DateRange(s) {
	case CurrentMonth:
		return CurrentMonth, true
	case PreviousMonth:
		return PreviousMonth, true
	case BothMonths:
		return BothMonths, true
	default:
		return CurrentMonth, false
	}
}

// UseLocalBudget reports whether the budget is read from a local file.
func (c *Config) UseLocalBudget() bool {
	return c.ActualBudgetPath != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if c.UseLocalBudget() {
		if _, err := os.Stat(c.ActualBudgetPath); err != nil {
			errs = append(errs, fmt.Sprintf("budget database not readable: %s", c.ActualBudgetPath))
		}
	} else {
		var missing []string
		if c.ActualServerURL == "" {
			missing = append(missing, EnvActualServerURL)
		}
		if c.ActualPassword == "" {
			missing = append(missing, EnvActualPassword)
		}
		if c.ActualFile == "" {
			missing = append(missing, EnvActualFile)
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Sprintf("missing required environment variables: %s", strings.Join(missing, ", ")))
		}

		if c.ActualServerURL != "" {
			if u, err := url.Parse(c.ActualServerURL); err != nil {
				errs = append(errs, fmt.Sprintf("invalid Actual server URL '%s': %v", c.ActualServerURL, err))
			} else if u.Scheme != "http" && u.Scheme != "https" {
				errs = append(errs, fmt.Sprintf("invalid Actual server URL scheme '%s': must be 'http' or 'https'", u.Scheme))
			}
		}
	}

	// Publishing needs a target and exactly one credential source
	if !c.DryRun {
		if c.GoogleSheetID == "" {
			errs = append(errs, fmt.Sprintf("missing required environment variables: %s", EnvGoogleSheetID))
		}

		hasFile := c.GoogleCredentialsFile != ""
		hasJSON := c.GoogleCredentialsJSON != ""
		switch {
		case !hasFile && !hasJSON:
			errs = append(errs, fmt.Sprintf("either %s or %s must be set", EnvGoogleCredentialsFile, EnvGoogleCredentialsJSON))
		case hasFile && hasJSON:
			errs = append(errs, fmt.Sprintf("%s and %s are mutually exclusive", EnvGoogleCredentialsFile, EnvGoogleCredentialsJSON))
		case hasFile:
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalidConfig, strings.Join(errs, "\n- "))
	}

	return nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
