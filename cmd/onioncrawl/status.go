package main

import (
	"context"
	"fmt"
	"time"

	"github.com/onioncrawl/onioncrawl/internal/config"
	"github.com/onioncrawl/onioncrawl/internal/frontier"
	"github.com/onioncrawl/onioncrawl/internal/report"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the frontier database state",
		Long: `Status reports how many URLs the frontier database holds, how many
were visited, and how many are still pending. It never modifies the
database and works while no crawl is running.

Examples:
  # Show the default frontier
  onioncrawl status

  # Show a frontier stored elsewhere, as JSON
  onioncrawl status --db-dir /data/crawls/market --json`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the frontier database")
	addReportFlags(cmd)

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	opts := frontier.DefaultOptions()
	opts.CreateIfNotExists = false

	store, err := frontier.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open frontier database: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	status := &report.Status{
		Database:    dbDir,
		Total:       stats.Total,
		Visited:     stats.Visited,
		Pending:     stats.Pending,
		GeneratedAt: time.Now(),
	}

	output, closeOutput, err := reportOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer, err := reportWriter(cmd, output)
	if err != nil {
		return err
	}

	_, err = writer.WriteStatus(status)
	return err
}
