package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Store != StoreMongo || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL() != 24*time.Hour {
		t.Fatalf("expected 24h ttl, got %s", cfg.TokenTTL())
	}
	if cfg.Auth.BcryptCost != 10 || cfg.Auth.LoginMaxAttempts != 5 || cfg.Auth.LoginLockout != 15*time.Minute {
		t.Fatalf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.Audit.Workers != 4 {
		t.Fatalf("expected 4 audit workers, got %d", cfg.Audit.Workers)
	}
	if cfg.LogFile() != "" {
		t.Fatalf("expected file logging off, got %q", cfg.LogFile())
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":           "s3cret",
		"JWT_EXPIRATION_HOURS": "2",
		"STORE_DRIVER":         "postgres",
		"LOG_DIR":              "/var/log/accounts",
		"LOGIN_LOCKOUT":        "1m",
		"ENV":                  "production",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.TokenTTL() != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %s", cfg.TokenTTL())
	}
	if cfg.Store != StorePostgres {
		t.Fatalf("expected postgres store, got %q", cfg.Store)
	}
	if cfg.LogFile() != filepath.Join("/var/log/accounts", "accounts.log") {
		t.Fatalf("unexpected log file %q", cfg.LogFile())
	}
	if cfg.Auth.LoginLockout != time.Minute {
		t.Fatalf("unexpected lockout %s", cfg.Auth.LoginLockout)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production env")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret": {},
		"unknown store":  {"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"},
		"zero ttl":       {"JWT_SECRET": "s", "JWT_EXPIRATION_HOURS": "0"},
		"zero workers":   {"JWT_SECRET": "s", "AUDIT_WORKERS": "0"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.HasPrefix(err.Error(), "config: ") {
				t.Fatalf("unexpected error %q", err)
			}
		})
	}
}
