// Package config loads service configuration from an optional YAML file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	App    AppConfig    `yaml:"app" envPrefix:"APP_"`
	Upload UploadConfig `yaml:"upload" envPrefix:"UPLOAD_"`
	Parser ParserConfig `yaml:"parser" envPrefix:"PARSER_"`
	DB     DBConfig     `yaml:"db" envPrefix:"DB_"`
	Redis  RedisConfig  `yaml:"redis" envPrefix:"REDIS_"`
	JWT    JWTConfig    `yaml:"jwt" envPrefix:"JWT_"`
	Purge  PurgeConfig  `yaml:"purge" envPrefix:"PURGE_"`
	CORS   CORSConfig   `yaml:"cors" envPrefix:"CORS_"`
}

type AppConfig struct {
	Port      int    `yaml:"port" env:"PORT"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"` // text or json
}

type UploadConfig struct {
	MaxBytes      int64         `yaml:"max_bytes" env:"MAX_BYTES"`
	DatasetTTL    time.Duration `yaml:"dataset_ttl" env:"DATASET_TTL"`
	RatePerMinute *int          `yaml:"rate_per_minute" env:"RATE_PER_MINUTE"` // 0 disables the throttle
}

type ParserConfig struct {
	HourOnlyPadding bool `yaml:"hour_only_padding" env:"HOUR_ONLY_PADDING"`
}

type DBConfig struct {
	Driver         string        `yaml:"driver" env:"DRIVER"` // sqlite or postgres
	DSN            string        `yaml:"dsn" env:"DSN"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	RunMigrations  *bool         `yaml:"run_migrations" env:"RUN_MIGRATIONS"`
}

// RedisConfig configures the dataset cache. An empty Host disables it.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"HOST"`
	Port     string        `yaml:"port" env:"PORT"`
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

type JWTConfig struct {
	Secret string `yaml:"secret" env:"SECRET"`
}

type PurgeConfig struct {
	Cron string `yaml:"cron" env:"CRON"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins" env:"ALLOW_ORIGINS" envSeparator:","`
}

// Load reads config from a YAML file (if path is non-empty and the file exists),
// then applies .env and environment variable overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.LogFormat == "" {
		c.App.LogFormat = "text"
	}
	if c.Upload.MaxBytes == 0 {
		c.Upload.MaxBytes = 100 * 1024 * 1024
	}
	if c.Upload.DatasetTTL == 0 {
		c.Upload.DatasetTTL = time.Hour
	}
	if c.Upload.RatePerMinute == nil {
		rate := 30
		c.Upload.RatePerMinute = &rate
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.DSN == "" && c.DB.Driver == "sqlite" {
		c.DB.DSN = ":memory:"
	}
	if c.DB.ConnectTimeout == 0 {
		c.DB.ConnectTimeout = 60 * time.Second
	}
	if c.DB.RunMigrations == nil {
		run := true
		c.DB.RunMigrations = &run
	}
	if c.Redis.Port == "" {
		c.Redis.Port = "6379"
	}
	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = 5 * time.Minute
	}
	if c.Purge.Cron == "" {
		c.Purge.Cron = "@every 10m"
	}
	if len(c.CORS.AllowOrigins) == 0 {
		c.CORS.AllowOrigins = []string{"*"}
	}
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required for driver %q", c.DB.Driver)
	}
	switch c.App.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", c.App.LogFormat)
	}
	if c.Upload.MaxBytes < 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	if c.Upload.DatasetTTL < 0 {
		return fmt.Errorf("upload.dataset_ttl must be positive")
	}
	if c.Upload.RatePerMinute != nil && *c.Upload.RatePerMinute < 0 {
		return fmt.Errorf("upload.rate_per_minute must not be negative")
	}
	return nil
}

// RedisAddr returns host:port, or "" when the cache is disabled.
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return c.Redis.Host + ":" + c.Redis.Port
}
