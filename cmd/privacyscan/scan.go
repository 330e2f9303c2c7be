package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacyscan/internal/config"
	"github.com/nao1215/privacyscan/internal/database"
	"github.com/nao1215/privacyscan/internal/fetch"
	"github.com/nao1215/privacyscan/internal/model"
	"github.com/nao1215/privacyscan/internal/pipeline"
	"github.com/nao1215/privacyscan/internal/privacy"
	"github.com/nao1215/privacyscan/internal/report"
)

// errJobsFailed is returned when at least one target could not be analysed.
var errJobsFailed = errors.New("some targets could not be analysed")

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <url>...",
		Short: "Analyse the privacy behaviour of web pages",
		Long: `Scan asks the crawl backend to load each URL and reports:
- First-party and third-party cookies
- Third-party requests and the hosts they go to
- Requests sent over plain HTTP
- HSTS and the effective referrer policy with its rating

Reports are cached per URL in a local database; a second scan of the same URL
prints the cached report. Use --force to crawl again.

Examples:
  # Scan a single page
  privacyscan scan https://example.com

  # Scan several pages, 8 at a time
  privacyscan scan --batch 8 https://example.com https://example.org

  # Use a specific backend and a SOCKS5 proxy
  privacyscan scan --backend http://crawler:8080/crawl --proxy 127.0.0.1:9050 https://example.com

  # Route backend calls and probes through an embedded Tor daemon
  privacyscan scan --tor https://example.com

  # Output a Markdown report to a file
  privacyscan scan --markdown -o report.md https://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Backend and transport flags
	cmd.Flags().StringP("backend", "B", config.DefaultBackend,
		"Crawl backend endpoint")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy address for backend calls and probes (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and use it as the proxy")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().StringP("resolver", "r", "",
		"DNS server used to reject unknown domains before crawling (e.g., 1.1.1.1)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for one backend call")
	cmd.Flags().Duration("probe-timeout", config.DefaultProbeTimeout,
		"Timeout for the HTTPS-only probe")
	cmd.Flags().Float64("rate", config.DefaultRate,
		"Backend requests per second (0 disables pacing)")
	cmd.Flags().Int("burst", config.DefaultBurst,
		"Backend requests allowed at once")

	// Job flags
	cmd.Flags().Int("max-retries", config.DefaultMaxRetries,
		"Retries after the first attempt")
	cmd.Flags().Duration("backoff", config.DefaultBackoff,
		"Wait before the first retry; doubles after each retry")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent scans")
	cmd.Flags().BoolP("force", "f", false,
		"Crawl again even if a report is cached")

	// Storage flags
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the job database")
	cmd.Flags().Bool("no-db", false,
		"Do not read or write the job database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .privacyscan in current or home directory)")

	// Report flags
	addReportFlags(cmd)

	return cmd
}

// addReportFlags adds the output format flags shared by scan, analyze and show.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from the config file and cobra command flags.
// Flags given explicitly win over the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	if cfg.Backend, err = flags.GetString("backend"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.Resolver, err = flags.GetString("resolver"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = flags.GetDuration("probe-timeout"); err != nil {
		return nil, err
	}
	if cfg.Rate, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.Burst, err = flags.GetInt("burst"); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = flags.GetInt("max-retries"); err != nil {
		return nil, err
	}
	if cfg.Backoff, err = flags.GetDuration("backoff"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.Force, err = flags.GetBool("force"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if err := loadConfigFile(cmd, cfg); err != nil {
		return nil, err
	}

	if err := readReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// loadConfigFile applies the config file to cfg.
// If the user explicitly specified a config file path, it is an error when
// the file does not exist. Otherwise a missing file is ignored.
func loadConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	cfg.ApplyFile(file, cmd.Flags().Changed)
	return nil
}

// readReportFlags reads the output format flags.
func readReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	return nil
}

// components are the collaborators of one scan run.
type components struct {
	runner *pipeline.Runner
	store  *database.JobStore
	tor    *fetch.TorProxy
}

// Close releases the job store and stops the embedded Tor daemon.
func (c *components) Close() error {
	var errs []error
	if c.store != nil {
		errs = append(errs, c.store.Close())
	}
	if c.tor != nil {
		errs = append(errs, c.tor.Close())
	}
	return errors.Join(errs...)
}

// buildComponents wires the dialer, prober, DNS checker, backend, analyzer
// and job store into a Runner.
// The caller must Close the result, also when an error is returned.
func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	c := &components{}

	dialer, err := newDialer(ctx, cfg, c, logger)
	if err != nil {
		return c, err
	}

	backend, err := fetch.NewBackend(cfg.Backend,
		fetch.WithHTTPClient(dialer.NewHTTPClient()),
		fetch.WithRateLimit(cfg.Rate, cfg.Burst),
		fetch.WithBackendMaxBodySize(cfg.MaxBodySize),
		fetch.WithBackendLogger(logger),
	)
	if err != nil {
		return c, fmt.Errorf("invalid backend %q: %w", cfg.Backend, err)
	}

	prober := fetch.NewProber(dialer,
		fetch.WithProbeTimeout(cfg.ProbeTimeout),
		fetch.WithProbeLogger(logger),
	)

	// an untyped nil keeps the DNS check disabled
	var checker pipeline.HostChecker
	if cfg.Resolver != "" {
		checker = fetch.NewDNSChecker(cfg.Resolver, cfg.ProbeTimeout)
	}

	table, err := cfg.PolicyTable()
	if err != nil {
		return c, err
	}
	analyzer := privacy.NewAnalyzer(
		privacy.WithPolicyTable(table),
		privacy.WithLogger(logger),
	)

	p := pipeline.DefaultPipeline(prober, checker, backend, analyzer, logger)

	runnerOpts := []pipeline.RunnerOption{
		pipeline.WithMaxRetries(cfg.MaxRetries),
		pipeline.WithBackoff(cfg.Backoff),
		pipeline.WithRunnerLogger(logger),
	}
	if cfg.SaveToDB {
		c.store, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return c, fmt.Errorf("failed to open database: %w", err)
		}
		runnerOpts = append(runnerOpts, pipeline.WithStore(c.store))
		logger.Info("database opened", "path", c.store.Path())
	}

	c.runner = pipeline.NewRunner(p, runnerOpts...)
	return c, nil
}

// newDialer returns a direct, proxied or Tor dialer for cfg. A started Tor
// daemon is recorded in c so that it is stopped with the other components.
func newDialer(ctx context.Context, cfg *config.Config, c *components, logger *slog.Logger) (*fetch.Dialer, error) {
	if cfg.UseTor {
		logger.Info("starting embedded Tor daemon (this may take a few minutes)...")
		c.tor = fetch.NewTorProxy(fetch.WithTorStartupTimeout(cfg.TorStartupTimeout))
		if err := c.tor.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start Tor: %w", err)
		}
		logger.Info("embedded Tor daemon started", "socksAddr", c.tor.Addr())

		dialer, err := c.tor.NewDialer(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create dialer: %w", err)
		}
		return dialer, nil
	}

	dialer, err := fetch.NewDialer(cfg.ProxyAddress, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create dialer: %w", err)
	}
	if err := dialer.CheckProxy(ctx); err != nil {
		return nil, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)", err, cfg.ProxyAddress)
	}
	return dialer, nil
}

// runScan analyses every target and writes one report per job.
func runScan(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"backend", cfg.Backend,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
		"tor", cfg.UseTor,
	)

	c, err := buildComponents(ctx, cfg, logger)
	defer func() {
		if cerr := c.Close(); cerr != nil {
			logger.Error("failed to release resources", "error", cerr)
		}
	}()
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := newReportWriter(cfg, output)

	bp := pipeline.NewBatchProcessor(c.runner,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithForce(cfg.Force),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()

	var (
		mu     sync.Mutex
		failed int
	)
	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(job *model.Job, index int) {
		mu.Lock()
		defer mu.Unlock()

		if job.Status != model.JobDone {
			failed++
		}
		if len(cfg.Targets) > 1 {
			logger.Info("job finished", "index", index+1, "total", len(cfg.Targets), "url", job.URL, "status", job.Status)
		}
		if _, err := writer.Write(job); err != nil {
			logger.Error("report failed", "url", job.URL, "error", err)
		}
	})

	logger.Info("scan completed", "elapsed", time.Since(startTime).Round(time.Millisecond), "failed", failed)

	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", errJobsFailed, failed, len(cfg.Targets))
	}
	return nil
}

// newReportWriter returns the writer for the requested format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output,
			report.WithVerbose(cfg.Verbose),
			report.WithShowEmpty(cfg.Verbose),
		)
	}
}

// openOutput returns the report destination: the file at path, or stdout
// when path is empty. Report files are created with 0600 permissions
// because they list cookie names and request URLs of the scanned pages.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
