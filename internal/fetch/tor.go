package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nao1215/tornago"
)

// ErrTorNotRunning is returned when the embedded Tor daemon is used before
// Start succeeded.
var ErrTorNotRunning = errors.New("embedded Tor daemon is not running")

// TorProxy runs a private Tor daemon whose SOCKS5 port is used as the
// proxy of a Dialer. Backend calls and probes then leave the machine over
// Tor, which hides the scanner's address from the scanned sites.
//
// Bootstrapping takes between several seconds and a few minutes because the
// daemon has to fetch the consensus and build circuits.
type TorProxy struct {
	mu sync.Mutex

	// process is the running daemon, nil before Start and after Close.
	process *tornago.TorProcess

	// startupTimeout bounds the bootstrap.
	startupTimeout time.Duration
}

// TorOption configures a TorProxy.
type TorOption func(*TorProxy)

// WithTorStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithTorStartupTimeout(timeout time.Duration) TorOption {
	return func(t *TorProxy) {
		t.startupTimeout = timeout
	}
}

// NewTorProxy creates a TorProxy. Call Start to launch the daemon.
func NewTorProxy(opts ...TorOption) *TorProxy {
	t := &TorProxy{
		startupTimeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start launches the daemon on OS-assigned ports and waits until it has
// bootstrapped. If ctx ends first, Start returns ctx's error and the daemon
// is stopped as soon as it comes up.
func (t *TorProxy) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(t.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	type result struct {
		process *tornago.TorProcess
		err     error
	}
	done := make(chan result, 1)
	go func() {
		process, err := tornago.StartTorDaemon(launchCfg)
		done <- result{process, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("failed to start embedded Tor daemon: %w", r.err)
		}
		t.mu.Lock()
		t.process = r.process
		t.mu.Unlock()
		return nil
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil && r.process != nil {
				_ = r.process.Stop() //nolint:errcheck // nobody is left to report to
			}
		}()
		return ctx.Err()
	}
}

// Addr returns the SOCKS5 address ("host:port") of the running daemon, or
// an empty string when it is not running.
func (t *TorProxy) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.process == nil {
		return ""
	}
	return t.process.SocksAddr()
}

// Running reports whether the daemon is up.
func (t *TorProxy) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.process != nil
}

// NewDialer returns a Dialer that routes through the daemon.
func (t *TorProxy) NewDialer(timeout time.Duration) (*Dialer, error) {
	addr := t.Addr()
	if addr == "" {
		return nil, ErrTorNotRunning
	}
	return NewDialer(addr, timeout)
}

// Close stops the daemon. It is safe to call on a TorProxy that was never
// started or is already closed.
func (t *TorProxy) Close() error {
	t.mu.Lock()
	process := t.process
	t.process = nil
	t.mu.Unlock()

	if process == nil {
		return nil
	}
	return process.Stop()
}
