package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/onioncrawl/onioncrawl/internal/log"
	"github.com/spf13/cobra"
)

// NewResumeCmd creates the resume command.
func NewResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume an interrupted crawl from the frontier database",
		Long: `Resume continues a previous crawl. Every URL the earlier run discovered
but never fetched is queued again, including URLs whose fetch failed.
The frontier database must already exist; resume never creates one.

Examples:
  # Resume the crawl recorded in the default data directory
  onioncrawl resume

  # Resume a crawl stored elsewhere, with a slower request rate
  onioncrawl resume --db-dir /data/crawls/market --delay 10s`,
		Args: cobra.NoArgs,
		RunE: runResumeCmd,
	}

	addCrawlFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runResumeCmd executes the resume command.
func runResumeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runCrawl(ctx, cmd, cfg, logger, true)
}
