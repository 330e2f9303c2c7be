package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout bounds the SOCKS5 greeting in CheckProxy.
const checkProxyTimeout = 2 * time.Second

// SOCKS5 greeting bytes.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

// ContextDialer dials network connections with cancellation.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Dialer opens connections either directly or through a SOCKS5 proxy.
// The same Dialer is shared by the HTTPS probe and the backend HTTP client,
// so both see the network from the same vantage point.
type Dialer struct {
	// proxyAddress is the SOCKS5 proxy in "host:port" form, empty for direct.
	proxyAddress string

	// dialer is the underlying dialer, proxied or direct.
	dialer proxy.Dialer

	// timeout bounds dials and is the default for HTTP clients.
	timeout time.Duration
}

// NewDialer creates a Dialer. An empty proxyAddress dials directly.
//
// The proxy is not contacted here; call CheckProxy to verify it.
func NewDialer(proxyAddress string, timeout time.Duration) (*Dialer, error) {
	direct := &net.Dialer{Timeout: timeout}
	if proxyAddress == "" {
		return &Dialer{dialer: direct, timeout: timeout}, nil
	}

	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	socks, err := proxy.SOCKS5("tcp", proxyAddress, nil, direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Dialer{
		proxyAddress: proxyAddress,
		dialer:       socks,
		timeout:      timeout,
	}, nil
}

// isValidProxyAddress checks for "host:port" with a port in 1..65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || strings.Contains(host, " ") {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// ProxyAddress returns the configured proxy address, empty for direct dialing.
func (d *Dialer) ProxyAddress() string {
	return d.proxyAddress
}

// DialContext connects to address, through the proxy when one is configured.
//
// proxy.Dialer has no context support in its interface, but both the direct
// and the SOCKS5 dialer implement proxy.ContextDialer. The goroutine fallback
// only serves third-party dialers; the abandoned dial may finish after ctx is
// done.
func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if cd, ok := d.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := d.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CheckProxy verifies that the configured proxy speaks SOCKS5 without
// authentication. It is a no-op for direct dialing.
func (d *Dialer) CheckProxy(ctx context.Context) error {
	if d.proxyAddress == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", d.proxyAddress)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrProxyCannotConnect, d.proxyAddress, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}

	// version, one method, no authentication
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return fmt.Errorf("%w: %w", ErrProxyCannotConnect, err)
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return fmt.Errorf("%w: %s", ErrProxyNotSOCKS5, d.proxyAddress)
	}
	if resp[0] != socks5Version || resp[1] == socks5AuthNoAccept || resp[1] != socks5AuthNone {
		return fmt.Errorf("%w: %s", ErrProxyNotSOCKS5, d.proxyAddress)
	}

	return nil
}

// NewHTTPClient creates an HTTP client whose connections go through d.
// The client does not follow redirects: the crawl backend answers directly.
func (d *Dialer) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext:         d.DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: d.timeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   d.timeout,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
