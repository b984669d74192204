package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/rocketshoes/cartstore/pkg/config"
)

// Storage drivers.
const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Catalog drivers.
const (
	CatalogHTTP   = "http"
	CatalogMemory = "memory"
)

// Config holds all configuration for the cartstore service.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"cartstore"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	PprofCIDRs      []string      `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// Cart sessions
	CartKeyPrefix   string        `env:"CART_KEY_PREFIX" envDefault:"@RocketShoes:cart"`
	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	CartTTL         time.Duration `env:"CART_TTL" envDefault:"168h"`
	StorageDriver   string        `env:"STORAGE_DRIVER" envDefault:"redis"`
	CatalogDriver   string        `env:"CATALOG_DRIVER" envDefault:"http"`
	CatalogURL      string        `env:"CATALOG_URL" envDefault:"http://localhost:3333"`
	CatalogTimeout  time.Duration `env:"CATALOG_TIMEOUT" envDefault:"5s"`
	CatalogRetries  int           `env:"CATALOG_MAX_RETRIES" envDefault:"2"`
	CBMaxRequests   uint32        `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval      time.Duration `env:"CB_INTERVAL" envDefault:"60s"`
	CBTimeout       time.Duration `env:"CB_TIMEOUT" envDefault:"30s"`
	CBFailureRatio  float64       `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests   uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`
	SlowQueryThresh time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"cartstore"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"cartstore"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"cartstore"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	// Kafka
	KafkaEnabled bool          `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventTimeout time.Duration `env:"EVENT_PUBLISH_TIMEOUT" envDefault:"5s"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cartstore config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}

	switch c.StorageDriver {
	case StorageRedis, StoragePostgres, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be one of redis, postgres, memory; got %q", c.StorageDriver))
	}

	switch c.CatalogDriver {
	case CatalogMemory:
	case CatalogHTTP:
		if u, err := url.Parse(c.CatalogURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("CATALOG_URL must be an absolute URL; got %q", c.CatalogURL))
		}
	default:
		errs = append(errs, fmt.Errorf("CATALOG_DRIVER must be one of http, memory; got %q", c.CatalogDriver))
	}

	if c.CartKeyPrefix == "" {
		errs = append(errs, errors.New("CART_KEY_PREFIX is required"))
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0; got %v", c.OTELSampleRate))
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		errs = append(errs, fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1]; got %v", c.CBFailureRatio))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set"))
	}

	return errors.Join(errs...)
}
