package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// LogPretty switches zerolog to the human-readable console writer.
	LogPretty bool `env:"LOG_PRETTY, default=false"`

	Services ServicesConfig
	Client   ClientConfig
	Tokens   TokenConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Reports  ReportConfig
	Minio    MinioConfig
	Sandbox  SandboxConfig
}

// ServicesConfig holds one base URL per backend. An empty value is not a
// startup error: requests to that service fail with an invalid-URL error.
type ServicesConfig struct {
	AuthBase      string `env:"AUTH_BASE"`
	ProductBase   string `env:"PRODUCT_BASE"`
	OrderBase     string `env:"ORDER_BASE"`
	PaymentBase   string `env:"PAYMENT_BASE"`
	AnalyticsBase string `env:"ANALYTICS_BASE"`
}

type ClientConfig struct {
	// Timeout of zero leaves the transport default (no client-side timeout).
	Timeout   time.Duration `env:"HTTP_TIMEOUT, default=0s"`
	RateLimit float64       `env:"RATE_LIMIT,   default=0"`
	RateBurst int           `env:"RATE_BURST,   default=1"`
	// KeepTokenOnNetworkError keeps the stored token when hydration fails in
	// transport instead of treating it as an expired session.
	KeepTokenOnNetworkError bool `env:"KEEP_TOKEN_ON_NETWORK_ERROR, default=false"`
	RefreshWorkers          int  `env:"REFRESH_WORKERS, default=4"`
}

type TokenConfig struct {
	Store string `env:"TOKEN_STORE, default=file"`
	Key   string `env:"TOKEN_KEY,   default=auth_token"`
	// File defaults to <user config dir>/storefront/credentials.json.
	File string        `env:"TOKEN_FILE"`
	TTL  time.Duration `env:"TOKEN_TTL, default=0s"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Prefix   string `env:"REDIS_PREFIX,   default=storefront"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type ReportConfig struct {
	Store string `env:"REPORT_STORE, default=file"`
	Dir   string `env:"REPORT_DIR,   default=./reports"`
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET, default=storefront-reports"`
	UseSSL    bool   `env:"MINIO_USE_SSL, default=false"`
}

type SandboxConfig struct {
	Addr      string `env:"SANDBOX_ADDR,       default=:8080"`
	JWTSecret string `env:"SANDBOX_JWT_SECRET, default=sandbox-secret"`
	// SeedAdminEmail/Password create an admin account at sandbox start.
	SeedAdminEmail    string `env:"SANDBOX_ADMIN_EMAIL,    default=admin@example.com"`
	SeedAdminPassword string `env:"SANDBOX_ADMIN_PASSWORD, default=admin123"`
}

// Load reads configuration from the process environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through an arbitrary lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Tokens.Store {
	case "memory", "file", "redis", "mongo":
	default:
		return fmt.Errorf("config: TOKEN_STORE must be one of memory, file, redis, mongo; got %q", c.Tokens.Store)
	}
	switch c.Reports.Store {
	case "file", "minio":
	default:
		return fmt.Errorf("config: REPORT_STORE must be file or minio; got %q", c.Reports.Store)
	}
	if c.Client.RateLimit < 0 {
		return fmt.Errorf("config: RATE_LIMIT must not be negative")
	}
	if c.Client.RateBurst < 1 {
		c.Client.RateBurst = 1
	}
	return nil
}
