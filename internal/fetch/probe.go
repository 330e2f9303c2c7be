package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// defaultProbeTimeout bounds the plain HTTP dial of the probe.
const defaultProbeTimeout = 5 * time.Second

// Prober implements the HTTPS-only probe.
//
// Some sites run no HTTP listener at all. Asking the crawl backend for their
// http:// URL fails with "connection refused", a terminal failure, although
// the site is perfectly reachable over HTTPS. Before the first attempt the
// probe dials the http port; if the connection is actively refused the
// target is rewritten to https on port 443.
type Prober struct {
	dialer  ContextDialer
	timeout time.Duration
	logger  *slog.Logger
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProbeTimeout sets the dial timeout.
func WithProbeTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithProbeLogger sets the logger.
func WithProbeLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber creates a Prober that dials through dialer.
func NewProber(dialer ContextDialer, opts ...ProberOption) *Prober {
	p := &Prober{
		dialer:  dialer,
		timeout: defaultProbeTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Resolve returns the URL the backend should crawl for target.
//
// Only a refused plain HTTP connection changes the target. Timeouts, DNS
// errors and successful connections leave it untouched; the backend reports
// those itself. An unparseable target is a terminal *FetchFailure.
func (p *Prober) Resolve(ctx context.Context, target string) (string, error) {
	u, err := ParseTarget(target)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" {
		return target, nil
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}
	address := net.JoinHostPort(u.Hostname(), port)

	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(dialCtx, "tcp", address)
	if err == nil {
		conn.Close()
		return target, nil
	}
	if !isConnectionRefused(err) {
		p.logger.Debug("https probe inconclusive", "address", address, "error", err)
		return target, nil
	}

	rewritten := httpsOnly(u)
	p.logger.Info("plain HTTP refused, switching to HTTPS", "target", target, "rewritten", rewritten)
	return rewritten, nil
}

// ParseTarget validates a target URL: absolute http(s) with a host.
func ParseTarget(target string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return nil, &FetchFailure{Reason: ReasonInvalidURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &FetchFailure{Reason: ReasonInvalidURL}
	}
	if u.Hostname() == "" {
		return nil, &FetchFailure{Reason: ReasonInvalidURL}
	}
	return u, nil
}

// httpsOnly rewrites u to https. An explicit port becomes 443; without one
// the https default applies.
func httpsOnly(u *url.URL) string {
	rewritten := *u
	rewritten.Scheme = "https"
	if u.Port() != "" {
		rewritten.Host = net.JoinHostPort(u.Hostname(), "443")
	}
	return rewritten.String()
}

// isConnectionRefused reports whether err is an actively refused TCP connection.
// SOCKS5 proxies report the refusal as text, so the message is checked too.
func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}
