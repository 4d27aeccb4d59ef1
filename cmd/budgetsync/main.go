package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"budgetsync/internal/backend"
	"budgetsync/internal/cli"
	"budgetsync/internal/config"
	"budgetsync/internal/log"
	"budgetsync/internal/trace"
	"budgetsync/internal/worker"
)

var (
	version = "dev"
	envFile string

	v      = viper.New()
	logger = log.New(log.Config{Component: log.ComponentApp, Output: os.Stderr})

	rootCmd = &cobra.Command{
		Use:   "budgetsync",
		Short: "Export an Actual Budget file to Google Sheets",
		Long: `budgetsync downloads a budget from an Actual server, builds the previous
and current month budget reports, the account balances and optionally a
transaction listing, and replaces the matching tabs of a Google spreadsheet.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runSync,
	}
)

func init() {
	config.Defaults(v)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.Flags().Bool("dry-run", false, "print the tabs instead of publishing them")

	_ = v.BindPFlag(config.EnvLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag(config.EnvLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag(config.KeyDryRun, rootCmd.Flags().Lookup("dry-run"))

	rootCmd.AddCommand(filesCmd())
}

func main() {
	ctx, cancel := cli.ShutdownContext(context.Background(), logger)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := cli.LoadEnvFile(envFile); err != nil {
		return err
	}

	l, err := cli.SetupLogger(v.GetString(config.EnvLogLevel), v.GetString(config.EnvLogFormat), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	logger = l
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := trace.WithRunID(cmd.Context(), trace.GenerateRunID())
	logger.Info("Starting budgetsync", "version", version, log.FieldRunID, trace.RunID(ctx))

	cfg, err := cli.LoadAndValidateConfig(v, logger)
	if err != nil {
		return err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	factory := backend.NewFactory(logger)

	// Sink first: bad credentials should fail before the download.
	sink, err := factory.CreateSink(ctx, bcfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ledger, err := factory.CreateLedger(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Warn("Failed to clean up budget files", log.FieldError, err)
		}
	}()

	res, err := worker.NewSyncWorker(ledger.Source, sink, worker.OptionsFromConfig(cfg), logger).Run(ctx)
	if err != nil {
		if worker.IsStage(err, worker.StagePublish) && res != nil && len(res.Tabs) > 0 {
			logger.Warn("Spreadsheet partially updated", "published_tabs", len(res.Tabs))
		}
		return err
	}

	if cfg.DryRun {
		logger.Info("Dry run finished", "tabs", len(res.Tabs))
	} else {
		logger.Info("Spreadsheet updated", log.FieldSpreadsheet, cfg.GoogleSheetID, "tabs", len(res.Tabs))
	}
	return nil
}
