package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Service.Name != "growz-gateway" {
		t.Errorf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Service.Port != "8090" {
		t.Errorf("Service.Port = %q", cfg.Service.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Upstream.Root != "/api" {
		t.Errorf("Upstream.Root = %q", cfg.Upstream.Root)
	}
	if cfg.Upstream.DropSessionOn401 {
		t.Error("DropSessionOn401 must default to off")
	}
	if cfg.Currency.Base != "XOF" || cfg.Currency.Locale != "fr" {
		t.Errorf("Currency = %+v", cfg.Currency)
	}
	if cfg.Tracing.Enabled || cfg.Profiling.Enabled {
		t.Error("tracing and profiling must default to off")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "https://api.growz.app")
	t.Setenv("UPSTREAM_TIMEOUT_SEC", "5")
	t.Setenv("UNAUTHORIZED_DROPS_SESSION", "true")
	t.Setenv("BASE_CURRENCY", "EUR")
	t.Setenv("SHUTDOWN_TIMEOUT_SEC", "30")

	cfg := Load()

	if cfg.Upstream.BaseURL != "https://api.growz.app" {
		t.Errorf("BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if !cfg.Upstream.DropSessionOn401 {
		t.Error("UNAUTHORIZED_DROPS_SESSION=true not honored")
	}
	if cfg.Currency.Base != "EUR" {
		t.Errorf("Currency.Base = %q", cfg.Currency.Base)
	}
	if got := cfg.GetUpstreamTimeoutDuration(); got != 5*time.Second {
		t.Errorf("upstream timeout = %v", got)
	}
	if got := cfg.GetShutdownTimeoutDuration(); got != 30*time.Second {
		t.Errorf("shutdown timeout = %v", got)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Load()
		return cfg
	}

	t.Run("relative upstream URL", func(t *testing.T) {
		cfg := base()
		cfg.Upstream.BaseURL = "api.growz.app"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for URL without scheme")
		}
	})

	t.Run("root without slash", func(t *testing.T) {
		cfg := base()
		cfg.Upstream.Root = "api"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for root without leading slash")
		}
	})

	t.Run("seal key length", func(t *testing.T) {
		cfg := base()
		cfg.State.SealKey = "too-short"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for 9-byte seal key")
		}
		cfg.State.SealKey = "0123456789abcdef"
		if err := cfg.Validate(); err != nil {
			t.Errorf("16-byte key rejected: %v", err)
		}
	})

	t.Run("base currency shape", func(t *testing.T) {
		cfg := base()
		cfg.Currency.Base = "EURO"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for 4-letter base currency")
		}
	})

	t.Run("sample rate bounds", func(t *testing.T) {
		cfg := base()
		cfg.Tracing.SampleRate = 1.5
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for sample rate above 1")
		}
	})
}
