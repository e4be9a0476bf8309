package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
	if cfg.StorageDriver != "memory" || cfg.BlobDriver != "memory" {
		t.Fatalf("unexpected drivers %q %q", cfg.StorageDriver, cfg.BlobDriver)
	}
	if cfg.AccessTokenTTL != 30*time.Minute || cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttls %v %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.LoginRateLimit != 5 || cfg.LoginRateWindow != time.Minute {
		t.Fatalf("unexpected login limit %d/%v", cfg.LoginRateLimit, cfg.LoginRateWindow)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("LOGIN_RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.StorageDriver != "postgres" {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || !cfg.CookieSecure {
		t.Fatalf("unexpected auth cfg %+v", cfg)
	}
	if cfg.LoginRateLimit != 5 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.LoginRateLimit)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"bad driver":     {"JWT_SECRET": "x", "STORAGE_DRIVER": "sqlite"},
		"s3 no bucket":   {"JWT_SECRET": "x", "BLOB_DRIVER": "s3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_DevHeaderWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_DEV_HEADER", "true")
	if _, err := Load(); err != nil {
		t.Fatalf("dev mode should not require a secret: %v", err)
	}
}
