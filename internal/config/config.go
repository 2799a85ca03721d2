// Package config assembles runtime configuration from an optional YAML
// file and the environment. Environment variables always win so
// deployments can override a checked-in file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries everything the server needs at startup.
type Config struct {
	Addr        string `yaml:"addr"`
	DatabaseURL string `yaml:"database_url"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	// GenerationDefaultPrice is charged for models without a configured
	// price. Zero disables the fallback, making unpriced models free.
	GenerationDefaultPrice float64       `yaml:"generation_default_price"`
	ProviderTimeout        time.Duration `yaml:"provider_timeout"`

	RateLimitPerSecond int           `yaml:"rate_limit_per_second"`
	RateLimitBurst     int           `yaml:"rate_limit_burst"`
	StatsInterval      time.Duration `yaml:"stats_interval"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr:            ":8080",
		TokenTTL:        7 * 24 * time.Hour,
		ProviderTimeout: 60 * time.Second,
		StatsInterval:   30 * time.Second,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables. A .env file is
// loaded best-effort first.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		loaded, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	applyEnv(&cfg)

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// LoadFile parses a YAML config file on top of the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Addr, "ADDR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setDuration(&cfg.TokenTTL, "TOKEN_TTL")
	setFloat(&cfg.GenerationDefaultPrice, "GENERATION_DEFAULT_PRICE")
	setDuration(&cfg.ProviderTimeout, "PROVIDER_TIMEOUT")
	setInt(&cfg.RateLimitPerSecond, "RATE_LIMIT_PER_SECOND")
	setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST")
	setDuration(&cfg.StatsInterval, "STATS_INTERVAL")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}
