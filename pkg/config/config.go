package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is the envconfig prefix; every tag below carries the full variable name.
	EnvPrefix = "PACKFINDERZ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv             = "PACKFINDERZ_APP_ENV"
	EnvAppPort            = "PACKFINDERZ_APP_PORT"
	EnvMarketplaceBaseURL = "PACKFINDERZ_MARKETPLACE_BASE_URL"
	EnvRedisURL           = "PACKFINDERZ_REDIS_URL"
	EnvRedisAddr          = "PACKFINDERZ_REDIS_ADDR"
)

type Config struct {
	App         AppConfig
	Marketplace MarketplaceConfig
	Redis       RedisConfig
	Sessions    SessionsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Marketplace.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PACKFINDERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"PACKFINDERZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PACKFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKFINDERZ_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma-separated allow list for browser clients.
	CORSOrigins []string `envconfig:"PACKFINDERZ_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// MarketplaceConfig points the discovery engine at the marketplace collaborator API.
// Credentials are never global; each session forwards its own bearer token.
type MarketplaceConfig struct {
	BaseURL  string        `envconfig:"PACKFINDERZ_MARKETPLACE_BASE_URL" default:"http://localhost:8080/api"`
	Timeout  time.Duration `envconfig:"PACKFINDERZ_MARKETPLACE_TIMEOUT" default:"10s"`
	PageSize int           `envconfig:"PACKFINDERZ_MARKETPLACE_PAGE_SIZE" default:"100"`
	// LookupConcurrency bounds parallel supplier lookups per session.
	LookupConcurrency int `envconfig:"PACKFINDERZ_MARKETPLACE_LOOKUP_CONCURRENCY" default:"8"`
}

func (m *MarketplaceConfig) validate() error {
	trimmed := strings.TrimSpace(m.BaseURL)
	if trimmed == "" {
		return fmt.Errorf("%s is required", EnvMarketplaceBaseURL)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvMarketplaceBaseURL)
	}
	m.BaseURL = strings.TrimRight(trimmed, "/")
	if m.PageSize <= 0 {
		m.PageSize = 100
	}
	if m.LookupConcurrency <= 0 {
		m.LookupConcurrency = 8
	}
	return nil
}

// RedisConfig is optional; leaving both URL and address empty disables the shared supplier name store.
type RedisConfig struct {
	URL             string        `envconfig:"PACKFINDERZ_REDIS_URL"`
	Address         string        `envconfig:"PACKFINDERZ_REDIS_ADDR"`
	Password        string        `envconfig:"PACKFINDERZ_REDIS_PASSWORD"`
	DB              int           `envconfig:"PACKFINDERZ_REDIS_DB" default:"0"`
	PoolSize        int           `envconfig:"PACKFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns    int           `envconfig:"PACKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout     time.Duration `envconfig:"PACKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout     time.Duration `envconfig:"PACKFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"PACKFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
	SupplierNameTTL time.Duration `envconfig:"PACKFINDERZ_REDIS_SUPPLIER_NAME_TTL" default:"24h"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SessionsConfig struct {
	IdleTTL       time.Duration `envconfig:"PACKFINDERZ_SESSIONS_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"PACKFINDERZ_SESSIONS_SWEEP_INTERVAL" default:"1m"`
}
