package config

import (
	"time"

	"github.com/nao1215/privacyscan/internal/model"
	"github.com/nao1215/privacyscan/internal/privacy"
)

// File represents the structure of the .privacyscan configuration file.
// Pointer fields distinguish "not set" from a zero value.
type File struct {
	// Backend is the crawl backend endpoint.
	Backend string `yaml:"backend,omitempty"`

	// Proxy is a SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// Tor starts an embedded Tor daemon as the proxy.
	Tor *bool `yaml:"tor,omitempty"`

	// TorTimeout bounds the embedded Tor bootstrap, e.g. "3m".
	TorTimeout *time.Duration `yaml:"tor_timeout,omitempty"`

	// Resolver is the DNS server for the pre-check, e.g. "1.1.1.1:53".
	Resolver string `yaml:"resolver,omitempty"`

	// Timeout is the backend call timeout, e.g. "90s".
	Timeout *time.Duration `yaml:"timeout,omitempty"`

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries *int `yaml:"max_retries,omitempty"`

	// Backoff is the wait before the first retry, e.g. "2s".
	Backoff *time.Duration `yaml:"backoff,omitempty"`

	// BatchSize is the number of concurrent jobs.
	BatchSize *int `yaml:"batch_size,omitempty"`

	// Rate is the backend request rate in requests per second.
	Rate *float64 `yaml:"rate,omitempty"`

	// Burst is the number of backend requests allowed at once.
	Burst *int `yaml:"burst,omitempty"`

	// ReferrerPolicy overrides ratings of the built-in table,
	// e.g. {"no-referrer-when-downgrade": "warning"}.
	ReferrerPolicy map[string]string `yaml:"referrer_policy,omitempty"`
}

// ApplyFile copies the settings of f into c. A setting whose CLI flag was
// given explicitly is kept; changed reports that for a flag name and may be
// nil when no flags were parsed. Referrer-policy overrides have no flag and
// are always applied.
func (c *Config) ApplyFile(f *File, changed func(flag string) bool) {
	if f == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if f.Backend != "" && !changed("backend") {
		c.Backend = f.Backend
	}
	if f.Proxy != "" && !changed("proxy") {
		c.ProxyAddress = f.Proxy
	}
	if f.Tor != nil && !changed("tor") {
		c.UseTor = *f.Tor
	}
	if f.TorTimeout != nil && !changed("tor-timeout") {
		c.TorStartupTimeout = *f.TorTimeout
	}
	if f.Resolver != "" && !changed("resolver") {
		c.Resolver = f.Resolver
	}
	if f.Timeout != nil && !changed("timeout") {
		c.Timeout = *f.Timeout
	}
	if f.MaxRetries != nil && !changed("max-retries") {
		c.MaxRetries = *f.MaxRetries
	}
	if f.Backoff != nil && !changed("backoff") {
		c.Backoff = *f.Backoff
	}
	if f.BatchSize != nil && !changed("batch") {
		c.BatchSize = *f.BatchSize
	}
	if f.Rate != nil && !changed("rate") {
		c.Rate = *f.Rate
	}
	if f.Burst != nil && !changed("burst") {
		c.Burst = *f.Burst
	}

	if len(f.ReferrerPolicy) > 0 {
		if c.ReferrerPolicy == nil {
			c.ReferrerPolicy = make(map[string]string, len(f.ReferrerPolicy))
		}
		for value, rating := range f.ReferrerPolicy {
			c.ReferrerPolicy[value] = rating
		}
	}
}

// PolicyTable returns the built-in referrer-policy table with the
// configured overrides applied. It fails with privacy.ErrInvalidPolicyRating
// when an override names an unknown rating.
func (c *Config) PolicyTable() (privacy.PolicyTable, error) {
	table := privacy.DefaultPolicyTable()
	if len(c.ReferrerPolicy) == 0 {
		return table, nil
	}

	override := make(map[string]model.Rating, len(c.ReferrerPolicy))
	for value, rating := range c.ReferrerPolicy {
		override[value] = model.Rating(rating)
	}

	table = table.Merge(override)
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
