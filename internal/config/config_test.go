package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/privacyscan/internal/model"
	"github.com/nao1215/privacyscan/internal/privacy"
)

// TestNewConfig tests that NewConfig returns correct default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	tests := []struct {
		name string
		ok   bool
	}{
		{"default backend", cfg.Backend == DefaultBackend},
		{"default timeout", cfg.Timeout == 90*time.Second},
		{"default max retries is 3", cfg.MaxRetries == 3},
		{"default backoff is 2 seconds", cfg.Backoff == 2*time.Second},
		{"default batch size is 4", cfg.BatchSize == 4},
		{"default rate", cfg.Rate == DefaultRate && cfg.Burst == DefaultBurst},
		{"no proxy by default", cfg.ProxyAddress == ""},
		{"no resolver by default", cfg.Resolver == ""},
		{"db enabled under XDG data dir", cfg.SaveToDB && cfg.DBDir == XDGDataDir()},
		{"force off", !cfg.Force},
	}
	for _, tt := range tests {
		if !tt.ok {
			t.Errorf("%s: got %+v", tt.name, cfg)
		}
	}
}

// TestConfigValidate tests configuration validation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid config returns nil", func(*Config) {}, nil},
		{"multiple targets is valid", func(c *Config) { c.Targets = append(c.Targets, "https://example.org") }, nil},
		{"empty targets returns ErrNoTarget", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"empty backend returns ErrNoBackend", func(c *Config) { c.Backend = "" }, ErrNoBackend},
		{"zero timeout returns ErrInvalidTimeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative probe timeout returns ErrInvalidTimeout", func(c *Config) { c.ProbeTimeout = -time.Second }, ErrInvalidTimeout},
		{"tor and proxy returns ErrConflictingProxy", func(c *Config) {
			c.UseTor = true
			c.ProxyAddress = "127.0.0.1:9050"
		}, ErrConflictingProxy},
		{"tor with zero startup timeout returns ErrInvalidTimeout", func(c *Config) {
			c.UseTor = true
			c.TorStartupTimeout = 0
		}, ErrInvalidTimeout},
		{"tor alone is valid", func(c *Config) { c.UseTor = true }, nil},
		{"zero retries is valid", func(c *Config) { c.MaxRetries = 0 }, nil},
		{"negative retries returns ErrInvalidMaxRetries", func(c *Config) { c.MaxRetries = -1 }, ErrInvalidMaxRetries},
		{"negative backoff returns ErrInvalidMaxRetries", func(c *Config) { c.Backoff = -time.Second }, ErrInvalidMaxRetries},
		{"zero batch size returns ErrInvalidBatchSize", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"zero rate disables pacing", func(c *Config) { c.Rate = 0 }, nil},
		{"negative rate returns ErrInvalidRate", func(c *Config) { c.Rate = -1 }, ErrInvalidRate},
		{"json and markdown returns ErrConflictingReportFormats", func(c *Config) {
			c.JSONReport = true
			c.MarkdownReport = true
		}, ErrConflictingReportFormats},
		{"negative body size returns ErrInvalidMaxBodySize", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"unknown rating returns ErrInvalidPolicyRating", func(c *Config) {
			c.ReferrerPolicy = map[string]string{"unsafe-url": "terrible"}
		}, privacy.ErrInvalidPolicyRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestConfigPolicyTable tests referrer-policy overrides.
func TestConfigPolicyTable(t *testing.T) {
	t.Parallel()

	t.Run("defaults without overrides", func(t *testing.T) {
		t.Parallel()

		table, err := NewConfig().PolicyTable()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if table.Rate("unsafe-url") != model.RatingAlert {
			t.Errorf("expected built-in rating for unsafe-url")
		}
	})

	t.Run("overrides are case-insensitive", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ReferrerPolicy = map[string]string{"No-Referrer-When-Downgrade": "warning"}

		table, err := cfg.PolicyTable()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := table.Rate("no-referrer-when-downgrade"); got != model.RatingWarning {
			t.Errorf("got %q, want warning", got)
		}
		if got := table.Rate("no-referrer"); got != model.RatingSuccess {
			t.Errorf("expected other entries to keep their rating, got %q", got)
		}
	})
}

// TestApplyFile tests merging file settings into a Config.
func TestApplyFile(t *testing.T) {
	t.Parallel()

	retries := 5
	rate := 0.5
	timeout := 30 * time.Second
	file := &File{
		Backend:        "https://crawler.internal/api",
		Proxy:          "127.0.0.1:1080",
		Resolver:       "1.1.1.1",
		Timeout:        &timeout,
		MaxRetries:     &retries,
		Rate:           &rate,
		ReferrerPolicy: map[string]string{"origin": "warning"},
	}

	t.Run("file settings applied", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(file, nil)

		if cfg.Backend != file.Backend || cfg.ProxyAddress != file.Proxy || cfg.Resolver != file.Resolver {
			t.Errorf("string settings not applied: %+v", cfg)
		}
		if cfg.Timeout != timeout || cfg.MaxRetries != 5 || cfg.Rate != 0.5 {
			t.Errorf("numeric settings not applied: %+v", cfg)
		}
		if cfg.BatchSize != DefaultBatchSize {
			t.Errorf("unset setting changed: %d", cfg.BatchSize)
		}
		if cfg.ReferrerPolicy["origin"] != "warning" {
			t.Errorf("referrer policy not applied: %v", cfg.ReferrerPolicy)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Backend = "http://flag.example/crawl"
		cfg.MaxRetries = 1
		cfg.ApplyFile(file, func(flag string) bool {
			return flag == "backend" || flag == "max-retries"
		})

		if cfg.Backend != "http://flag.example/crawl" || cfg.MaxRetries != 1 {
			t.Errorf("flags overridden by file: %+v", cfg)
		}
		if cfg.ProxyAddress != file.Proxy {
			t.Errorf("expected proxy from file, got %q", cfg.ProxyAddress)
		}
	})

	t.Run("tor settings applied", func(t *testing.T) {
		t.Parallel()

		useTor := true
		torTimeout := time.Minute
		cfg := NewConfig()
		cfg.ApplyFile(&File{Tor: &useTor, TorTimeout: &torTimeout}, nil)
		if !cfg.UseTor || cfg.TorStartupTimeout != time.Minute {
			t.Errorf("tor settings not applied: tor=%v timeout=%v", cfg.UseTor, cfg.TorStartupTimeout)
		}
	})

	t.Run("nil file is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(nil, nil)
		if cfg.Backend != DefaultBackend {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.privacyscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".privacyscan")
		content := `backend: https://crawler.example/api
proxy: 127.0.0.1:9050
resolver: 9.9.9.9:53
timeout: 45s
max_retries: 2
backoff: 500ms
batch_size: 8
rate: 1.5
burst: 2
referrer_policy:
  no-referrer-when-downgrade: warning
  unsafe-url: alert
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.Backend != "https://crawler.example/api" || cf.Proxy != "127.0.0.1:9050" || cf.Resolver != "9.9.9.9:53" {
			t.Errorf("unexpected strings: %+v", cf)
		}
		if cf.Timeout == nil || *cf.Timeout != 45*time.Second {
			t.Errorf("unexpected timeout: %v", cf.Timeout)
		}
		if cf.Backoff == nil || *cf.Backoff != 500*time.Millisecond {
			t.Errorf("unexpected backoff: %v", cf.Backoff)
		}
		if cf.MaxRetries == nil || *cf.MaxRetries != 2 {
			t.Errorf("unexpected max_retries: %v", cf.MaxRetries)
		}
		if cf.BatchSize == nil || *cf.BatchSize != 8 || cf.Burst == nil || *cf.Burst != 2 {
			t.Errorf("unexpected batch/burst: %+v", cf)
		}
		if cf.Rate == nil || *cf.Rate != 1.5 {
			t.Errorf("unexpected rate: %v", cf.Rate)
		}
		if len(cf.ReferrerPolicy) != 2 || cf.ReferrerPolicy["no-referrer-when-downgrade"] != "warning" {
			t.Errorf("unexpected referrer_policy: %v", cf.ReferrerPolicy)
		}
	})

	t.Run("unset fields stay nil", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".privacyscan")
		if err := os.WriteFile(configPath, []byte("backend: http://localhost:3000\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.MaxRetries != nil || cf.Timeout != nil || cf.Rate != nil {
			t.Errorf("expected unset pointers, got %+v", cf)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".privacyscan")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if err == nil || !strings.Contains(err.Error(), configPath) {
			t.Errorf("expected parse error naming the file, got %v", err)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("backend: x"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("finds file in current directory", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("backend: x"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		t.Chdir(dir)

		result := FindConfigFile("")
		if filepath.Base(result) != DefaultConfigFile || filepath.Dir(result) == "" {
			t.Errorf("expected config in cwd, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{"data": XDGDataDir(), "config": XDGConfigDir()} {
		if dir == "" {
			t.Errorf("%s dir is empty", name)
		}
		if filepath.Base(dir) != AppName {
			t.Errorf("%s dir %q does not end in %s", name, dir, AppName)
		}
	}
}
