// Package fetch drives the external crawl backend.
//
// It contains everything that touches the network on behalf of a job:
//   - Dialer: direct or SOCKS5 connections (golang.org/x/net/proxy)
//   - TorProxy: an embedded Tor daemon (github.com/nao1215/tornago) whose
//     SOCKS5 port can replace an external proxy
//   - Prober: the HTTPS-only probe that rewrites http targets whose plain
//     HTTP port actively refuses connections
//   - DNSChecker: an optional NXDOMAIN pre-check (github.com/miekg/dns)
//   - Backend: the HTTP client for the crawl backend, paced by a shared
//     rate limiter (golang.org/x/time/rate)
//   - ClassifyFailure: decides whether a failure reason is worth a retry
//
// Every failure that should end up on a job record is a *FetchFailure whose
// Reason is the user-visible message.
package fetch
