// Package cli provides the start-up steps shared by the budgetsync commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"budgetsync/internal/config"
	"budgetsync/internal/log"
)

// SetupLogger builds the application logger from a level name and output
// format and installs it as the slog default.
func SetupLogger(level, format string, out io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if format != log.FormatJSON {
		format = log.FormatText
	}

	logger := log.New(log.Config{
		Level:     lvl,
		Format:    format,
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads a .env file for local runs. A missing file is not an
// error; variables already set in the environment win.
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadAndValidateConfig reads the configuration from v and validates it.
func LoadAndValidateConfig(v *viper.Viper, logger *log.Logger) (*config.Config, error) {
	if logger == nil {
		logger = log.Discard()
	}
	cfg := config.Load(v, logger.WithComponent(log.ComponentConfig).Logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM so an
// interrupted run stops before publishing its next tab.
func ShutdownContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	if logger == nil {
		logger = log.Discard()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Warn("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
