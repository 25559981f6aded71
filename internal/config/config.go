// Package config loads the single configuration object the FormX binaries start from.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/vault"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config is decoded from FORMX_* environment variables. Defaults live in the tags.
type Config struct {
	HTTPAddr string `env:"FORMX_HTTP_ADDR,default=:5000"`
	TLSCert  string `env:"FORMX_TLS_CERT"`
	TLSKey   string `env:"FORMX_TLS_KEY"`
	MaxConns int    `env:"FORMX_MAX_CONNS,default=100"`

	Store       string `env:"FORMX_STORE,default=file"`
	DataDir     string `env:"FORMX_DATA_DIR,default=./data"`
	DataKey     string `env:"FORMX_DATA_KEY"`
	PostgresDSN string `env:"FORMX_POSTGRES_DSN"`

	RedisAddr string        `env:"FORMX_REDIS_ADDR"`
	CacheTTL  time.Duration `env:"FORMX_CACHE_TTL,default=5m"`

	JWTSecret   string  `env:"FORMX_JWT_SECRET"`
	CORSOrigins string  `env:"FORMX_CORS_ORIGINS,default=https://form-x360.vercel.app"`
	RateLimit   float64 `env:"FORMX_RATE_LIMIT,default=10"`
	RateBurst   int     `env:"FORMX_RATE_BURST,default=20"`

	LogLevel  string `env:"FORMX_LOG_LEVEL,default=info"`
	LogFormat string `env:"FORMX_LOG_FORMAT,default=json"`

	CascadeDelete bool `env:"FORMX_CASCADE_DELETE,default=false"`
}

// Load reads envFile when it exists and decodes the environment. Variables already set in the
// environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile:
		if c.DataDir == "" {
			return errors.New("FORMX_DATA_DIR is required for the file store")
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("FORMX_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreFile, StorePostgres)
	}
	if c.DataKey != "" {
		if _, err := vault.ParseKey(c.DataKey); err != nil {
			return fmt.Errorf("FORMX_DATA_KEY: %w", err)
		}
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("FORMX_TLS_CERT and FORMX_TLS_KEY must be set together")
	}
	if c.MaxConns < 0 {
		return errors.New("FORMX_MAX_CONNS must not be negative")
	}
	if c.JWTSecret == "" {
		return errors.New("FORMX_JWT_SECRET is required")
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return errors.New("FORMX_RATE_LIMIT and FORMX_RATE_BURST must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("FORMX_LOG_LEVEL: %w", err)
	}
	return nil
}

// AllowedOrigins splits the comma separated CORS origin list.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// VaultKey returns the decoded data key, nil when encryption at rest is off.
func (c Config) VaultKey() ([]byte, error) {
	if c.DataKey == "" {
		return nil, nil
	}
	return vault.ParseKey(c.DataKey)
}
