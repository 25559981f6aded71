package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FORMX_JWT_SECRET", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPAddr != ":5000" || cfg.Store != StoreFile || cfg.CacheTTL != 5*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"https://form-x360.vercel.app"}, cfg.AllowedOrigins()); diff != "" {
		t.Errorf("AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "FORMX_STORE=postgres\nFORMX_POSTGRES_DSN=postgres://localhost/formx\nFORMX_CORS_ORIGINS=http://a.test, http://b.test\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	// Clear after the test; godotenv writes straight into the process environment.
	t.Setenv("FORMX_STORE", "")
	os.Unsetenv("FORMX_STORE")
	t.Setenv("FORMX_POSTGRES_DSN", "")
	os.Unsetenv("FORMX_POSTGRES_DSN")
	t.Setenv("FORMX_CORS_ORIGINS", "")
	os.Unsetenv("FORMX_CORS_ORIGINS")
	t.Setenv("FORMX_CASCADE_DELETE", "true")

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store != StorePostgres || cfg.PostgresDSN != "postgres://localhost/formx" {
		t.Errorf("env file not applied: %+v", cfg)
	}
	if !cfg.CascadeDelete {
		t.Error("Expected cascade delete from environment")
	}
	if diff := cmp.Diff([]string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins()); diff != "" {
		t.Errorf("AllowedOrigins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Store: StoreFile, DataDir: "./data", JWTSecret: "s",
		RateLimit: 1, RateBurst: 1, LogLevel: "info",
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"unknown store", func(c *Config) { c.Store = "mongo" }, "unknown store"},
		{"postgres without dsn", func(c *Config) { c.Store = StorePostgres }, "FORMX_POSTGRES_DSN"},
		{"bad key", func(c *Config) { c.DataKey = "abcd" }, "FORMX_DATA_KEY"},
		{"no secret", func(c *Config) { c.JWTSecret = "" }, "FORMX_JWT_SECRET"},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, "FORMX_RATE_LIMIT"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "FORMX_LOG_LEVEL"},
		{"cert without key", func(c *Config) { c.TLSCert = "cert.pem" }, "FORMX_TLS_KEY"},
		{"negative conns", func(c *Config) { c.MaxConns = -1 }, "FORMX_MAX_CONNS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("Expected error containing %q, got %v", tt.errSub, err)
			}
		})
	}

	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	key, err := valid.VaultKey()
	if err != nil || key != nil {
		t.Errorf("Expected no key, got %v %v", key, err)
	}
}
