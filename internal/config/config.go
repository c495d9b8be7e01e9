// Package config loads the server configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Paystack PaystackConfig `yaml:"paystack"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Promo    PromoConfig    `yaml:"promo"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPS   int      `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	AuditLogPath   string   `yaml:"audit_log_path"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is one of memory, postgres or supabase.
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
	SupabaseURL string `yaml:"supabase_url"`
	SupabaseKey string `yaml:"supabase_key"`
	// RedisAddr, when set, moves cart storage to redis regardless of the
	// primary backend.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// PaystackConfig holds payment gateway credentials.
type PaystackConfig struct {
	SecretKey string `yaml:"secret_key"`
	BaseURL   string `yaml:"base_url"`
}

// DeliveryConfig overrides the fee schedule.
type DeliveryConfig struct {
	HomeMetroFee int64 `yaml:"home_metro_fee"`
	DomesticFee  int64 `yaml:"domestic_fee"`
	// ReferralReward is the referrer payout in naira. Negative disables it.
	ReferralReward int64 `yaml:"referral_reward"`
}

// PromoConfig tunes promo maintenance.
type PromoConfig struct {
	SweepSchedule string `yaml:"sweep_schedule"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns a working development configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration file and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

// LoadOrDefault loads the configuration file when present, otherwise falls
// back to defaults plus environment overrides.
func LoadOrDefault(path string) (Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.PostgresDSN, "POSTGRES_DSN")
	setString(&c.Storage.SupabaseURL, "SUPABASE_URL")
	setString(&c.Storage.SupabaseKey, "SUPABASE_SERVICE_KEY")
	setString(&c.Storage.RedisAddr, "REDIS_ADDR")
	setString(&c.Storage.RedisPassword, "REDIS_PASSWORD")
	setInt(&c.Storage.RedisDB, "REDIS_DB")
	setString(&c.Paystack.SecretKey, "PAYSTACK_SECRET_KEY")
	setString(&c.Paystack.BaseURL, "PAYSTACK_BASE_URL")
	setString(&c.Promo.SweepSchedule, "PROMO_SWEEP_SCHEDULE")
	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case "memory", "postgres", "supabase":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "postgres" && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("postgres backend requires postgres_dsn")
	}
	if c.Storage.Backend == "supabase" && c.Storage.SupabaseURL == "" {
		return fmt.Errorf("supabase backend requires supabase_url")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required (set JWT_SECRET)")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}
