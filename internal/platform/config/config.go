// Package config loads and validates server configuration from the environment
// and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"ADDR"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// DatabaseURL selects the substrate by scheme: sqlite://, postgres://,
	// redis:// or memory://.
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	// MigrateOnStart applies pending migrations before serving.
	MigrateOnStart bool `mapstructure:"MIGRATE_ON_START"`
	RedisPoolSize  int  `mapstructure:"REDIS_POOL_SIZE"`

	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// KafkaBrokers is a comma-separated broker list. When set, audit events
	// go to AuditKafkaTopic instead of the log.
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	return load(".env")
}

func load(envFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("ADDR", "127.0.0.1:8000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "sqlite://database.sqlite")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("REDIS_POOL_SIZE", 0)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "crp.audit")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("config: ADDR must be set")
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set")
	}
	if _, err := c.Substrate(); err != nil {
		return err
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.RedisPoolSize < 0 {
		return errors.New("config: pool sizes must not be negative")
	}
	if c.RequestTimeout < 0 || c.ShutdownTimeout < 0 {
		return errors.New("config: timeouts must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// Substrate names the store backend selected by DatabaseURL.
type Substrate string

const (
	SubstrateSQLite   Substrate = "sqlite"
	SubstratePostgres Substrate = "postgres"
	SubstrateRedis    Substrate = "redis"
	SubstrateMemory   Substrate = "memory"
)

// Substrate maps the DATABASE_URL scheme onto a backend.
func (c *Config) Substrate() (Substrate, error) {
	scheme, _, ok := strings.Cut(c.DatabaseURL, "://")
	if !ok {
		return "", fmt.Errorf("config: DATABASE_URL %q has no scheme", c.DatabaseURL)
	}
	switch strings.ToLower(scheme) {
	case "sqlite":
		return SubstrateSQLite, nil
	case "postgres", "postgresql":
		return SubstratePostgres, nil
	case "redis", "rediss":
		return SubstrateRedis, nil
	case "memory":
		return SubstrateMemory, nil
	default:
		return "", fmt.Errorf("config: unsupported DATABASE_URL scheme %q", scheme)
	}
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
// An empty list means Kafka audit delivery is disabled.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
