package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Auction struct {
		DefaultBudget   string        `yaml:"default_budget"`
		TxTimeout       time.Duration `yaml:"tx_timeout"`
		LockTimeout     time.Duration `yaml:"lock_timeout"`
		RecentBidsLimit int           `yaml:"recent_bids_limit"`
	} `yaml:"auction"`

	Store string `yaml:"store"`

	NATS struct {
		URL           string `yaml:"url"`
		Subject       string `yaml:"subject"`
		ArchiveStream string `yaml:"archive_stream"`
	} `yaml:"nats"`

	Redis struct {
		URL    string        `yaml:"url"`
		Prefix string        `yaml:"prefix"`
		TTL    time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Auth struct {
		Secret   string        `yaml:"-"`
		Username string        `yaml:"username"`
		Password string        `yaml:"-"`
		TokenTTL time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	LogLevel string `yaml:"log_level"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Auction.DefaultBudget = "650000"
	cfg.Auction.TxTimeout = 5 * time.Second
	cfg.Auction.LockTimeout = 3 * time.Second
	cfg.Auction.RecentBidsLimit = 10
	cfg.Store = "postgres"
	cfg.NATS.Subject = "auction.events"
	cfg.Redis.Prefix = "auction"
	cfg.Redis.TTL = 30 * time.Second
	cfg.Auth.Username = "admin"
	cfg.Auth.TokenTTL = 2 * time.Hour
	cfg.LogLevel = "info"
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid duration environment value")
	}
	return defaultValue
}

// loadConfig reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Str("path", path).Msg("no config file, using defaults")
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	config.Store = getEnv("STORE", config.Store)
	config.Auction.TxTimeout = getEnvAsDuration("TX_TIMEOUT", config.Auction.TxTimeout)
	config.Auction.LockTimeout = getEnvAsDuration("LOCK_TIMEOUT", config.Auction.LockTimeout)
	config.Auction.RecentBidsLimit = getEnvAsInt("RECENT_BIDS_LIMIT", config.Auction.RecentBidsLimit)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.NATS.Subject = getEnv("NATS_SUBJECT", config.NATS.Subject)
	config.NATS.ArchiveStream = getEnv("NATS_ARCHIVE_STREAM", config.NATS.ArchiveStream)
	config.Redis.URL = getEnv("REDIS_URL", config.Redis.URL)
	config.Auth.Secret = getEnv("JWT_SECRET", config.Auth.Secret)
	config.Auth.Username = getEnv("ADMIN_USERNAME", config.Auth.Username)
	config.Auth.Password = getEnv("ADMIN_PASSWORD", config.Auth.Password)
	config.Auth.TokenTTL = getEnvAsDuration("TOKEN_TTL", config.Auth.TokenTTL)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)

	if config.Store != "postgres" && config.Store != "memory" {
		return nil, fmt.Errorf("unknown store %q, want postgres or memory", config.Store)
	}
	if _, err := config.defaultBudget(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) defaultBudget() (money.Amount, error) {
	budget, err := money.Parse(c.Auction.DefaultBudget)
	if err != nil || !budget.IsPositive() {
		return 0, fmt.Errorf("invalid auction.default_budget %q", c.Auction.DefaultBudget)
	}
	return budget, nil
}
