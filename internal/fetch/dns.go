package fetch

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// DNSChecker rejects targets whose host does not exist before any backend
// call is spent on them.
//
// Only an authoritative NXDOMAIN is a verdict. Timeouts, SERVFAIL and
// unreachable resolvers yield ErrDNSUnavailable and the caller proceeds as
// if no check had been made.
type DNSChecker struct {
	// server is the resolver address in "host:port" form.
	server string

	client *dns.Client
}

// NewDNSChecker creates a checker that queries server.
// A server without port gets port 53.
func NewDNSChecker(server string, timeout time.Duration) *DNSChecker {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNSChecker{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

// Server returns the resolver address.
func (c *DNSChecker) Server() string {
	return c.server
}

// Check looks up the A record of host.
// NXDOMAIN is reported as a terminal *FetchFailure with ReasonInvalidDomain.
// IP literals are never checked.
func (c *DNSChecker) Check(ctx context.Context, host string) error {
	if host == "" || net.ParseIP(host) != nil {
		return nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := c.client.ExchangeContext(ctx, msg, c.server)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDNSUnavailable, c.server, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		return nil
	case dns.RcodeNameError:
		return &FetchFailure{Reason: ReasonInvalidDomain}
	default:
		return fmt.Errorf("%w: %s answered %s for %s",
			ErrDNSUnavailable, c.server, dns.RcodeToString[resp.Rcode], host)
	}
}
