package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	GatewayURL          string        `envconfig:"GATEWAY_URL" default:"http://localhost:8080/api/v1"`
	GatewayTimeout      time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`
	GatewayServiceToken string        `envconfig:"GATEWAY_SERVICE_TOKEN"`

	SearchDebounce    time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"300ms"`
	CatalogPageSize   int           `envconfig:"CATALOG_PAGE_SIZE" default:"10"`
	CatalogMode       string        `envconfig:"CATALOG_MODE" default:"pager"`
	InlineSearchLimit int           `envconfig:"INLINE_SEARCH_LIMIT" default:"5"`

	TaxRate  decimal.Decimal `envconfig:"TAX_RATE" default:"0.18"`
	Currency string          `envconfig:"CURRENCY" default:"PEN"`
	Locale   string          `envconfig:"LOCALE" default:"es-PE"`

	LookupCacheTTL    time.Duration `envconfig:"LOOKUP_CACHE_TTL" default:"10m"`
	DashboardCacheTTL time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"1m"`
	WorkspaceIdle     time.Duration `envconfig:"WORKSPACE_IDLE" default:"2h"`
}

// LoadConfig reads configuration from the environment, after loading a .env
// file from the working directory when one exists.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret must be provided")
	}
	if c.CSRFSecret == "" {
		return errors.New("csrf secret must be provided")
	}
	if c.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate must not be negative: %s", c.TaxRate)
	}
	c.CatalogMode = strings.ToLower(strings.TrimSpace(c.CatalogMode))
	switch catalog.Mode(c.CatalogMode) {
	case catalog.ModeReplace, catalog.ModeAppend:
	default:
		return fmt.Errorf("unknown catalog mode %q", c.CatalogMode)
	}
	return nil
}

// BrowserMode returns the configured catalog materialization mode.
func (c *Config) BrowserMode() catalog.Mode {
	return catalog.Mode(c.CatalogMode)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// WarmupEnabled reports whether the worker has a token to call the backend with.
func (c *Config) WarmupEnabled() bool {
	return c != nil && strings.TrimSpace(c.GatewayServiceToken) != ""
}
