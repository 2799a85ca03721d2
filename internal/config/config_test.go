package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CONFIG_FILE", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADDR", ":9090")
	t.Setenv("GENERATION_DEFAULT_PRICE", "0.25")
	t.Setenv("RATE_LIMIT_PER_SECOND", "50")
	t.Setenv("PROVIDER_TIMEOUT", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected env addr, got %q", cfg.Addr)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("expected env secret, got %q", cfg.JWTSecret)
	}
	if cfg.GenerationDefaultPrice != 0.25 {
		t.Fatalf("expected price 0.25, got %v", cfg.GenerationDefaultPrice)
	}
	if cfg.RateLimitPerSecond != 50 {
		t.Fatalf("expected rate limit 50, got %d", cfg.RateLimitPerSecond)
	}
	if cfg.ProviderTimeout != 90*time.Second {
		t.Fatalf("expected 90s timeout, got %v", cfg.ProviderTimeout)
	}
	// Untouched values keep their defaults.
	if cfg.TokenTTL != 7*24*time.Hour {
		t.Fatalf("expected default token ttl, got %v", cfg.TokenTTL)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("addr: \":7070\"\njwt_secret: from-file\ntoken_ttl: 1h\nrate_limit_burst: 20\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.JWTSecret != "from-file" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", cfg.TokenTTL)
	}
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("expected burst 20, got %d", cfg.RateLimitBurst)
	}
	// Fields absent from the file keep defaults.
	if cfg.ProviderTimeout != 60*time.Second {
		t.Fatalf("expected default provider timeout, got %v", cfg.ProviderTimeout)
	}
}

func TestEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: \":7070\"\njwt_secret: from-file\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("environment must override the file, got %q", cfg.JWTSecret)
	}
	if cfg.Addr != ":7070" {
		t.Fatalf("file value must survive when env is empty, got %q", cfg.Addr)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
