package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"budgetsync/internal/actual"
	"budgetsync/internal/config"
	"budgetsync/internal/core"
	"budgetsync/internal/sheets/console"
)

func filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List the budget files on the Actual server",
		Long: `List the budget files the Actual server holds, with the id and name
either of which can be used as ACTUAL_FILE.`,
		Args: cobra.NoArgs,
		RunE: runFiles,
	}
}

func runFiles(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.Load(v, logger.Logger)

	var missing []string
	if cfg.ActualServerURL == "" {
		missing = append(missing, config.EnvActualServerURL)
	}
	if cfg.ActualPassword == "" {
		missing = append(missing, config.EnvActualPassword)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", config.ErrInvalidConfig, strings.Join(missing, ", "))
	}

	client, err := actual.NewClient(cfg.ActualServerURL, nil, cfg.HTTPTimeout, logger)
	if err != nil {
		return err
	}
	if err := client.Login(ctx, cfg.ActualPassword); err != nil {
		return err
	}
	files, err := client.ListFiles(ctx)
	if err != nil {
		return err
	}

	grid := core.Grid{Rows: [][]string{{"Name", "File ID", "Encrypted"}}, HeaderRows: 1}
	for _, f := range files {
		if f.Deleted != 0 {
			continue
		}
		encrypted := "no"
		if f.Encrypted() {
			encrypted = "yes"
		}
		grid.Rows = append(grid.Rows, []string{f.Name, f.FileID, encrypted})
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), console.Render(grid))
	return err
}
