package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/onioncrawl/onioncrawl/internal/auth"
	"github.com/onioncrawl/onioncrawl/internal/config"
	"github.com/onioncrawl/onioncrawl/internal/crawler"
	"github.com/onioncrawl/onioncrawl/internal/fetch"
	"github.com/onioncrawl/onioncrawl/internal/frontier"
	"github.com/onioncrawl/onioncrawl/internal/log"
	"github.com/onioncrawl/onioncrawl/internal/report"
	"github.com/onioncrawl/onioncrawl/internal/tor"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Crawl a Tor hidden service starting from a seed URL",
		Long: `Crawl fetches pages through Tor starting from the seed URL, extracts
links, and follows them breadth-first. Every discovered URL is recorded
in a durable frontier database, so an interrupted crawl can be resumed
with the resume subcommand.

Requests are rate limited globally: at most one request per delay
interval across all workers, to stay polite toward the target service.

Examples:
  # Crawl an onion service with defaults (embedded Tor, 5s delay)
  onioncrawl crawl http://exampleonion.onion/

  # Use an external Tor proxy and a faster request rate
  onioncrawl crawl --external-tor 127.0.0.1:9150 --delay 2s http://exampleonion.onion/

  # Log in before crawling
  onioncrawl crawl --login-url http://exampleonion.onion/login \
    --login-data username=alice --login-data password=secret \
    http://exampleonion.onion/

  # Render JavaScript-heavy pages via an external rendering service
  onioncrawl crawl --render-endpoint http://127.0.0.1:8050/render http://exampleonion.onion/

Configuration file (.onioncrawl) example:
  delay: 10s
  workers: 2
  login:
    url: http://exampleonion.onion/login
    form:
      username: alice
      password: secret`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// addCrawlFlags registers the flags shared by crawl and resume.
func addCrawlFlags(cmd *cobra.Command) {
	// Tor connection flags
	cmd.Flags().StringP("external-tor", "e", "",
		"Use external Tor proxy at specified address (e.g., 127.0.0.1:9150)")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Crawl behavior flags
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Global minimum interval between requests")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent crawl workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Connection timeout for each request")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Bool("onion-only", false,
		"Follow only links to .onion hosts")
	cmd.Flags().String("render-endpoint", "",
		"Render pages via the headless rendering service at this URL")

	// Authentication flags
	cmd.Flags().String("login-url", "",
		"POST login form to this URL before crawling")
	cmd.Flags().StringArray("login-data", nil,
		"Login form field as key=value (repeatable)")

	// Storage flags
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the frontier database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .onioncrawl in current or home directory)")
}

// addReportFlags registers the summary output format flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := validateSeedHost(cfg.Seed); err != nil {
		return err
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runCrawl(ctx, cmd, cfg, logger, false)
}

// validateSeedHost rejects a seed pointing at a malformed v3 onion address.
// A mistyped onion address never resolves; failing here beats waiting for
// Tor to time out on it.
func validateSeedHost(seed string) error {
	u, err := url.Parse(seed)
	if err != nil {
		return fmt.Errorf("invalid seed url: %w", err)
	}
	host := u.Hostname()
	if tor.IsOnionHost(host) && !tor.IsValidV3Address(host) {
		return fmt.Errorf("seed host %q is not a valid v3 onion address (checksum mismatch or malformed)", host)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// The optional config file is applied first, then flags the user set
// explicitly override it.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cfg, configPath); err != nil {
		return nil, err
	}

	externalTor, err := cmd.Flags().GetString("external-tor")
	if err != nil {
		return nil, err
	}
	if externalTor != "" {
		cfg.UseExternalTor = true
		cfg.TorProxyAddress = externalTor
	}

	cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout")
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("delay") || cfg.Delay == 0 {
		cfg.Delay, err = cmd.Flags().GetDuration("delay")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("workers") || cfg.Workers == 0 {
		cfg.Workers, err = cmd.Flags().GetInt("workers")
		if err != nil {
			return nil, err
		}
	}

	cfg.FetchTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("user-agent") || cfg.UserAgent == "" {
		cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
		if err != nil {
			return nil, err
		}
	}

	cfg.OnionOnly, err = cmd.Flags().GetBool("onion-only")
	if err != nil {
		return nil, err
	}

	cfg.RenderEndpoint, err = cmd.Flags().GetString("render-endpoint")
	if err != nil {
		return nil, err
	}

	loginURL, err := cmd.Flags().GetString("login-url")
	if err != nil {
		return nil, err
	}
	if loginURL != "" {
		cfg.LoginURL = loginURL
		cfg.LoginData, err = cmd.Flags().GetStringArray("login-data")
		if err != nil {
			return nil, err
		}
	}

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if len(args) > 0 {
		cfg.Seed = args[0]
	}

	return cfg, nil
}

// applyConfigFile loads and applies the optional config file.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise a missing file silently leaves the defaults in place.
func applyConfigFile(cfg *config.Config, explicit string) error {
	path := config.FindFile(explicit)
	if path == "" {
		if explicit != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicit)
		}
		return nil
	}

	file, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := file.Apply(cfg); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

// runCrawl executes a crawl or resume run.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, resume bool) error {
	opts := frontier.DefaultOptions()
	if resume {
		// A resume against a missing frontier is a user error, not a
		// fresh crawl.
		opts.CreateIfNotExists = false
	}

	store, err := frontier.Open(cfg.DBDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open frontier database: %w", err)
	}
	defer store.Close()
	logger.Info("frontier database opened", "path", store.Path())

	client, embedded, err := connectTor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if embedded != nil {
		defer func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}()
	}

	httpClient := client.NewHTTPClient()

	if cfg.LoginURL != "" {
		form, err := auth.ParseForm(cfg.LoginData)
		if err != nil {
			return fmt.Errorf("invalid login data: %w", err)
		}
		if err := auth.Login(ctx, httpClient, cfg.LoginURL, form); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		logger.Info("login succeeded", "url", cfg.LoginURL)
	}

	limiter := fetch.NewLimiter(cfg.Delay)
	fetcher := newFetcher(cfg, httpClient, limiter)
	defer fetcher.Close()

	var extractorOpts []crawler.ExtractorOption
	if cfg.OnionOnly {
		extractorOpts = append(extractorOpts, crawler.WithOnionOnly())
	}

	engine := crawler.NewEngine(store, fetcher,
		crawler.WithWorkers(cfg.Workers),
		crawler.WithLogger(logger),
		crawler.WithExtractor(crawler.NewExtractor(extractorOpts...)),
	)

	if resume {
		queued, err := engine.SeedPending(ctx)
		if err != nil {
			return err
		}
		if queued == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to resume: the frontier has no pending URLs.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resuming crawl with %d pending URL(s)...\n", queued)
	} else {
		if err := engine.Seed(ctx, cfg.Seed); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Crawling %s...\n", cfg.Seed)
	}

	startedAt := time.Now()
	stats, runErr := engine.Run(ctx)

	summary := &report.Summary{
		Seed:       cfg.Seed,
		Database:   cfg.DBDir,
		StartedAt:  startedAt,
		Elapsed:    stats.Elapsed,
		Fetched:    stats.Fetched,
		Failed:     stats.Failed,
		Discovered: stats.Discovered,
		Skipped:    stats.Skipped,
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		summary.Error = runErr.Error()
	}

	// The run context may already be cancelled; the final frontier read
	// still has to happen so the summary reflects reality.
	if fstats, err := store.Stats(context.Background()); err != nil {
		logger.Error("failed to read frontier stats", "error", err)
	} else {
		summary.Frontier = report.Status{
			Database: cfg.DBDir,
			Total:    fstats.Total,
			Visited:  fstats.Visited,
			Pending:  fstats.Pending,
		}
	}

	if err := outputSummary(cmd, summary); err != nil {
		return err
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// newFetcher builds the fetcher the crawl will use. The static variant
// goes through the Tor-proxied client. The renderer must NOT: the
// rendering service listens on a local address, which Tor refuses to dial,
// and the service routes its own browser traffic through Tor anyway. It
// gets a plain direct client instead.
func newFetcher(cfg *config.Config, torClient *http.Client, limiter *rate.Limiter) fetch.Fetcher {
	if cfg.RenderEndpoint != "" {
		renderClient := &http.Client{Timeout: cfg.FetchTimeout}
		return fetch.NewRenderer(renderClient, limiter, cfg.RenderEndpoint)
	}
	return fetch.NewStatic(torClient, limiter, fetch.WithUserAgent(cfg.UserAgent))
}

// connectTor establishes the Tor connection per configuration: either an
// already-running external proxy or a freshly started embedded daemon.
func connectTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tor.Client, *tor.Embedded, error) {
	if cfg.UseExternalTor {
		client, err := tor.NewClient(cfg.TorProxyAddress, cfg.FetchTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
		}

		status := client.CheckConnection(ctx)
		if status != tor.ProxyStatusOK {
			return nil, nil, fmt.Errorf("tor proxy check failed: %s (make sure Tor is running at %s)",
				status, cfg.TorProxyAddress)
		}

		logger.Info("Tor proxy connection verified", "address", cfg.TorProxyAddress)
		return client, nil, nil
	}

	fmt.Println("Starting embedded Tor daemon...")
	fmt.Printf("This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := tor.NewEmbedded(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := embedded.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	socksAddr, err := embedded.SocksAddr()
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, err
	}
	logger.Info("embedded Tor daemon started", "socksAddr", socksAddr)
	fmt.Printf("Embedded Tor daemon started successfully!\nSOCKS proxy: %s\n\n", socksAddr)

	client, err := tor.NewClient(socksAddr, cfg.FetchTimeout)
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	status := client.CheckConnection(ctx)
	if status != tor.ProxyStatusOK {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	return client, embedded, nil
}

// outputSummary writes the run summary in the requested format.
func outputSummary(cmd *cobra.Command, summary *report.Summary) error {
	output, closeOutput, err := reportOutput(cmd)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer, err := reportWriter(cmd, output)
	if err != nil {
		return err
	}

	_, err = writer.WriteSummary(summary)
	return err
}

// reportOutput resolves the report destination from the --output flag.
// The returned close function is a no-op for stdout.
func reportOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Summaries can reveal what was crawled, keep them owner-readable.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// reportWriter selects the report format from the --json/--markdown flags.
func reportWriter(cmd *cobra.Command, output io.Writer) (report.Writer, error) {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	switch {
	case jsonOut:
		return report.NewJSONWriter(output, report.WithPrettyPrint()), nil
	case markdownOut:
		return report.NewMarkdownWriter(output), nil
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(getVerboseFlag(cmd))), nil
	}
}
