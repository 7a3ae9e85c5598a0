package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/tournevent/courier/pkg/shipper"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// CronToken guards the reconciliation trigger; empty leaves it open.
	CronToken string `envconfig:"CRON_TOKEN"`

	// Database
	DBDriver string `envconfig:"DB_DRIVER" default:"postgres"`
	DBDSN    string `envconfig:"DB_DSN" default:"host=localhost user=courier dbname=courier sslmode=disable"`

	// Redis area cache; empty address disables it.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	AreaCacheTTL  time.Duration `envconfig:"AREA_CACHE_TTL" default:"6h"`

	// Carriers
	CarrierTimeout   time.Duration `envconfig:"CARRIER_TIMEOUT" default:"30s"`
	CarrierUseMock   bool          `envconfig:"CARRIER_USE_MOCK" default:"false"`
	PathaoBaseURL    string        `envconfig:"PATHAO_BASE_URL" default:"https://api-hermes.pathao.com"`
	RedXBaseURL      string        `envconfig:"REDX_BASE_URL" default:"https://openapi.redx.com.bd/v1.0.0-beta"`
	SteadfastBaseURL string        `envconfig:"STEADFAST_BASE_URL" default:"https://portal.packzy.com/api/v1"`
	PaperflyBaseURL  string        `envconfig:"PAPERFLY_BASE_URL" default:"https://api.paperfly.com.bd"`

	// Reconciliation
	ReconcileBatchSize int           `envconfig:"RECONCILE_BATCH_SIZE" default:"500"`
	ReconcileDelay     time.Duration `envconfig:"RECONCILE_DELAY" default:"1s"`
	ReconcileInterval  time.Duration `envconfig:"RECONCILE_INTERVAL" default:"0"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"courier"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables, after loading any
// .env files given (".env" when none are). Missing files are ignored;
// variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q: want postgres or sqlite", c.DBDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ReconcileBatchSize <= 0 {
		return fmt.Errorf("RECONCILE_BATCH_SIZE must be positive, got %d", c.ReconcileBatchSize)
	}
	if c.ReconcileDelay < 0 || c.ReconcileInterval < 0 {
		return errors.New("reconcile delay and interval must not be negative")
	}
	return nil
}

// BaseURLs returns the per-carrier API roots.
func (c *Config) BaseURLs() map[shipper.Carrier]string {
	return map[shipper.Carrier]string{
		shipper.CarrierPathao:    c.PathaoBaseURL,
		shipper.CarrierRedX:      c.RedXBaseURL,
		shipper.CarrierSteadfast: c.SteadfastBaseURL,
		shipper.CarrierPaperfly:  c.PaperflyBaseURL,
	}
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("db.system", c.DBDriver),
		attribute.Bool("courier.use_mock", c.CarrierUseMock),
		attribute.Bool("courier.area_cache", c.RedisAddr != ""),
	}
}
