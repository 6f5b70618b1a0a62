package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Marketplace.BaseURL != "http://marketplace.local/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Marketplace.BaseURL)
	}
	if cfg.Marketplace.PageSize != 100 {
		t.Fatalf("expected default page size 100, got %d", cfg.Marketplace.PageSize)
	}
	if got := cfg.Marketplace.Timeout; got != 10*time.Second {
		t.Fatalf("expected timeout 10s, got %v", got)
	}
	if got := cfg.Sessions.IdleTTL; got != 30*time.Minute {
		t.Fatalf("expected idle ttl 30m, got %v", got)
	}
	if cfg.Redis.Enabled() {
		t.Fatal("expected redis disabled without url or address")
	}
}

func TestLoad_RedisEnabled(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected redis enabled")
	}
	if got := cfg.Redis.SupplierNameTTL; got != 24*time.Hour {
		t.Fatalf("expected supplier name ttl 24h, got %v", got)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RelativeMarketplaceURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvMarketplaceBaseURL, "/api")

	if _, err := Load(); err == nil {
		t.Fatal("expected relative marketplace url to be rejected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvAppPort, "8081")
	t.Setenv(EnvMarketplaceBaseURL, "http://marketplace.local/api/")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
