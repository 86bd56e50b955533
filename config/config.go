// Package config loads gateway configuration from the environment.
// A .env file is honored when present; every value has a sane default so the
// gateway can start with nothing but UPSTREAM_BASE_URL set.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds the full gateway configuration.
type Config struct {
	Service struct {
		Name    string `env:"SERVICE_NAME,default=growz-gateway"`
		Version string `env:"SERVICE_VERSION,default=dev"`
		Env     string `env:"SERVICE_ENV,default=development"`
		Port    string `env:"SERVICE_PORT,default=8090"`
	}

	Logging struct {
		Level string `env:"LOG_LEVEL,default=info"`
	}

	Upstream struct {
		// BaseURL is the GrowzApp backend origin, e.g. https://api.growz.app.
		BaseURL string `env:"UPSTREAM_BASE_URL,default=http://localhost:8080"`
		// Root is the API prefix applied exactly once to relative paths.
		Root string `env:"UPSTREAM_API_ROOT,default=/api"`
		// TimeoutSec bounds a single upstream call. 0 disables the bound.
		TimeoutSec int `env:"UPSTREAM_TIMEOUT_SEC,default=30"`
		// DropSessionOn401 enables the forced-logout policy: when the
		// backend answers 401, the in-memory and persisted session are
		// cleared. Off by default; the error surfaces either way.
		DropSessionOn401 bool `env:"UNAUTHORIZED_DROPS_SESSION,default=false"`
	}

	State struct {
		// DBPath is the SQLite file holding the persisted client state
		// (session record and currency selection).
		DBPath string `env:"STATE_DB_PATH,default=./data/gateway_state.db"`
		// SealKey, when set, encrypts the persisted session record at
		// rest (AES-GCM). Must be 16, 24 or 32 bytes.
		SealKey string `env:"STATE_SEAL_KEY,default="`
	}

	Currency struct {
		Base   string `env:"BASE_CURRENCY,default=XOF"`
		Locale string `env:"CURRENCY_LOCALE,default=fr"`
	}

	Tracing struct {
		Enabled    bool    `env:"TRACING_ENABLED,default=false"`
		Endpoint   string  `env:"TRACING_ENDPOINT,default=localhost:4318"`
		SampleRate float64 `env:"TRACING_SAMPLE_RATE,default=0.1"`
	}

	Profiling struct {
		Enabled  bool   `env:"PROFILING_ENABLED,default=false"`
		Endpoint string `env:"PROFILING_ENDPOINT,default=http://localhost:4040"`
	}

	Shutdown struct {
		TimeoutSec    int `env:"SHUTDOWN_TIMEOUT_SEC,default=15"`
		DrainDelaySec int `env:"READINESS_DRAIN_DELAY_SEC,default=0"`
	}
}

// Load reads the configuration from the environment, honoring a local .env
// file when one exists.
func Load() *Config {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		panic("config decode failed: " + err.Error())
	}
	return &cfg
}

// Validate checks invariants that envdecode defaults cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL %q is not an absolute URL", c.Upstream.BaseURL)
	}
	if !strings.HasPrefix(c.Upstream.Root, "/") {
		return fmt.Errorf("UPSTREAM_API_ROOT %q must start with /", c.Upstream.Root)
	}
	if n := len(c.State.SealKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("STATE_SEAL_KEY must be 16, 24 or 32 bytes, got %d", n)
	}
	if len(c.Currency.Base) != 3 {
		return fmt.Errorf("BASE_CURRENCY %q must be a 3-letter code", c.Currency.Base)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be within [0,1], got %v", c.Tracing.SampleRate)
	}
	return nil
}

// GetUpstreamTimeoutDuration returns the per-call upstream timeout.
func (c *Config) GetUpstreamTimeoutDuration() time.Duration {
	return time.Duration(c.Upstream.TimeoutSec) * time.Second
}

// GetShutdownTimeoutDuration returns the graceful-shutdown bound.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.Shutdown.TimeoutSec) * time.Second
}

// GetReadinessDrainDelayDuration returns the delay between failing readiness
// and starting HTTP shutdown.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	return time.Duration(c.Shutdown.DrainDelaySec) * time.Second
}
