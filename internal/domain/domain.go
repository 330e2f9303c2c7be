package domain

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Registrable returns the registrable domain of host.
//
// When host falls under an explicit public-suffix rule the suffix plus one
// label is returned (www.example.co.uk -> example.co.uk). Otherwise the
// normalised host is returned unchanged: unknown TLDs, IP addresses, single
// labels and hosts that are themselves a public suffix still get a stable
// identity to compare against.
//
// Registrable is idempotent: Registrable(Registrable(h)) == Registrable(h).
func Registrable(host string) string {
	h := normalize(host)
	if h == "" || net.ParseIP(h) != nil {
		return h
	}

	suffix, icann := publicsuffix.PublicSuffix(h)

	// The list's implicit "*" rule matches any unknown TLD; only explicit
	// rules count. Private rules are all multi-label.
	if !icann && !strings.Contains(suffix, ".") {
		return h
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(h)
	if err != nil {
		// host is itself a public suffix
		return h
	}
	return registrable
}

// HostOf returns the host of rawURL without port.
// The second result is false when the URL cannot be parsed or carries no host.
func HostOf(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := u.Hostname()
	if host == "" {
		return "", false
	}
	return host, true
}

// SameParty reports whether host belongs to the registrable domain.
func SameParty(host, registrable string) bool {
	return Registrable(host) == registrable
}

func normalize(host string) string {
	h := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if h == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(h); err == nil && ascii != "" {
		return ascii
	}
	return h
}
