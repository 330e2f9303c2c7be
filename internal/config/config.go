package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBackend is the crawl backend endpoint used when none is configured.
	// It matches a backend running next to the CLI on its default port.
	DefaultBackend = "http://127.0.0.1:8080/crawl"

	// DefaultTimeout bounds one backend call. The backend loads the page in a
	// headless browser and waits for the network to go idle, which routinely
	// takes tens of seconds on tracker-heavy pages.
	DefaultTimeout = 90 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultBackoff is the wait before the first retry; it doubles after each.
	DefaultBackoff = 2 * time.Second

	// DefaultBatchSize of 4 concurrent jobs keeps a single headless-browser
	// backend busy without queueing requests behind each other.
	DefaultBatchSize = 4

	// DefaultRate is the backend request rate in requests per second.
	DefaultRate = 2.0

	// DefaultBurst is the number of backend requests allowed at once.
	DefaultBurst = 4

	// DefaultProbeTimeout bounds the HTTPS-only probe dial.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultMaxBodySize limits the backend response read. The payload carries
	// the page HTML plus every request, so it is larger than a page alone.
	DefaultMaxBodySize = 20 * 1024 * 1024 // 20MB

	// DefaultTorStartupTimeout bounds the bootstrap of the embedded Tor daemon.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "privacyscan"
)

// Config holds all configuration options for privacyscan.
// This struct is populated from the config file and CLI flags and passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Backend is the crawl backend endpoint. The target URL is sent to it as
	// the fetch_url query parameter.
	Backend string

	// ProxyAddress is an optional SOCKS5 proxy ("host:port") used for both
	// the backend call and the HTTPS-only probe. Empty means direct.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and uses its SOCKS5 port as the
	// proxy. Mutually exclusive with ProxyAddress.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for Tor to bootstrap.
	TorStartupTimeout time.Duration

	// Resolver is an optional DNS server used to reject unknown domains before
	// calling the backend. Empty disables the check.
	Resolver string

	// Timeout is the timeout of one backend call.
	Timeout time.Duration

	// ProbeTimeout is the timeout of the HTTPS-only probe dial.
	ProbeTimeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Backoff is the wait before the first retry.
	Backoff time.Duration

	// BatchSize is the number of concurrent jobs when scanning several targets.
	BatchSize int

	// Rate is the backend request rate in requests per second.
	// Zero disables pacing.
	Rate float64

	// Burst is the number of backend requests allowed at once.
	Burst int

	// MaxBodySize is the maximum backend response size in bytes.
	MaxBodySize int64

	// Force re-runs targets that already have a done job.
	Force bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .privacyscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// ReferrerPolicy overrides entries of the built-in referrer-policy rating
	// table. Keys are policy values, values are ratings.
	ReferrerPolicy map[string]string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// Targets is the list of URLs to analyse.
	Targets []string

	// DBDir is the directory path for storing the SQLite job store.
	// Defaults to XDG data directory (~/.local/share/privacyscan on Linux).
	DBDir string

	// SaveToDB indicates whether jobs are persisted. Without it every scan
	// re-runs and nothing is cached.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, retries).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Backend:           DefaultBackend,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Timeout:           DefaultTimeout,
		ProbeTimeout:      DefaultProbeTimeout,
		MaxRetries:        DefaultMaxRetries,
		Backoff:           DefaultBackoff,
		BatchSize:         DefaultBatchSize,
		Rate:              DefaultRate,
		Burst:             DefaultBurst,
		MaxBodySize:       DefaultMaxBodySize,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for privacyscan.
// On Linux: ~/.local/share/privacyscan
// On macOS: ~/Library/Application Support/privacyscan
// On Windows: %LOCALAPPDATA%\privacyscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for privacyscan.
// On Linux: ~/.config/privacyscan
// On macOS: ~/Library/Application Support/privacyscan
// On Windows: %APPDATA%\privacyscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.Backend == "" {
		return ErrNoBackend
	}

	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}

	if c.Timeout <= 0 || c.ProbeTimeout < 0 {
		return ErrInvalidTimeout
	}

	if c.UseTor && c.TorStartupTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxRetries < 0 || c.Backoff < 0 {
		return ErrInvalidMaxRetries
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Rate < 0 || c.Burst < 0 {
		return ErrInvalidRate
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if _, err := c.PolicyTable(); err != nil {
		return err
	}

	return nil
}
