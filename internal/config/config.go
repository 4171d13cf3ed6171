// Package config loads the gateway's environment-driven configuration,
// following the teacher's godotenv-then-envconfig bootstrap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultDevCallbackSecret = "nexus-dev-default-secret-do-not-use-in-prod"

// Config is the full set of environment inputs named in spec §6.
type Config struct {
	App        AppConfig
	RateLimit  RateLimitConfig
	Schema     SchemaConfig
	Store      StoreConfig
	Admin      AdminConfig
}

type AppConfig struct {
	Mode string `envconfig:"NEXUS_APP_MODE" default:"dev"`
	Port string `envconfig:"NEXUS_APP_PORT" default:":8080"`
}

// RateLimitConfig backs the Ingress Guard (C9).
type RateLimitConfig struct {
	Enabled            bool `envconfig:"NEXUS_RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute  int  `envconfig:"NEXUS_RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
	Burst              int  `envconfig:"NEXUS_RATE_LIMIT_BURST" default:"20"`
	RedisAddr          string `envconfig:"NEXUS_REDIS_ADDR"`
}

// SchemaConfig backs the Schema Validator (C1).
type SchemaConfig struct {
	Dir string `envconfig:"NEXUS_XSD_DIR" default:"./schemas"`
}

// StoreConfig backs the Event & Payment Store (C3).
type StoreConfig struct {
	PostgresDSN   string `envconfig:"NEXUS_POSTGRES_DSN"`
	MongoURI      string `envconfig:"NEXUS_MONGO_URI"`
	ClickHouseDSN string `envconfig:"NEXUS_CLICKHOUSE_DSN"`
	NATSURL       string `envconfig:"NEXUS_NATS_URL" default:"nats://127.0.0.1:4222"`
}

// AdminConfig gates the Participant Registry's mutating/audit endpoints.
type AdminConfig struct {
	JWTSecret      string `envconfig:"NEXUS_ADMIN_JWT_SECRET"`
	RequireAuth    bool   `envconfig:"NEXUS_ADMIN_REQUIRE_AUTH" default:"false"`
	CallbackSecret string `envconfig:"NEXUS_CALLBACK_SECRET"`
}

// CallbackTimeout is the hard per-attempt HTTP timeout for C6 deliveries (spec §4.6/§5).
const CallbackTimeout = 10 * time.Second

// QuoteValidity is the quote validity window (spec §3).
const QuoteValidity = 600 * time.Second

// Load reads a .env file (if present) then overlays process environment
// variables onto Config, matching the teacher's config.New() order.
func Load() (*Config, error) {
	root, err := os.Getwd()
	if err == nil {
		envPath := filepath.Join(root, ".env")
		if _, statErr := os.Stat(envPath); statErr == nil {
			_ = godotenv.Load(envPath)
		}
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

// EffectiveCallbackSecret returns the configured secret, or the fixed
// development default with the caller expected to log a startup warning
// (spec §6: "default dev secret with a startup warning").
func (c *Config) EffectiveCallbackSecret() (secret string, isDefault bool) {
	if c.Admin.CallbackSecret == "" {
		return defaultDevCallbackSecret, true
	}
	return c.Admin.CallbackSecret, false
}
