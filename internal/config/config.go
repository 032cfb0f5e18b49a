package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"CoinCompare/internal/model"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// SourceConfig configures one upstream price API.
type SourceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Config holds all application configuration.
type Config struct {
	Sources struct {
		CoinGecko     SourceConfig `yaml:"coingecko"`
		CryptoCompare SourceConfig `yaml:"cryptocompare"`
	} `yaml:"sources"`
	Coins model.CoinRegistry `yaml:"coins"`
	Cache struct {
		Backend string        `yaml:"backend"`
		TTL     time.Duration `yaml:"ttl"`
		Size    int           `yaml:"size"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Metrics struct {
		Enabled *bool  `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		RefreshDays int    `yaml:"refresh_days"`
	} `yaml:"schedule"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Alerts struct {
		Telegram struct {
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"alerts"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.Sources.CoinGecko.BaseURL = v
	}
	if v := os.Getenv("CRYPTOCOMPARE_BASE_URL"); v != "" {
		cfg.Sources.CryptoCompare.BaseURL = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Alerts.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Alerts.Telegram.ChatID = v
	}

	// Defaults
	if cfg.Sources.CoinGecko.BaseURL == "" {
		cfg.Sources.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Sources.CoinGecko.Timeout == 0 {
		cfg.Sources.CoinGecko.Timeout = 10 * time.Second
	}
	if cfg.Sources.CryptoCompare.BaseURL == "" {
		cfg.Sources.CryptoCompare.BaseURL = "https://min-api.cryptocompare.com/data/v2"
	}
	if cfg.Sources.CryptoCompare.Timeout == 0 {
		cfg.Sources.CryptoCompare.Timeout = 10 * time.Second
	}
	if len(cfg.Coins) == 0 {
		cfg.Coins = model.DefaultCoins()
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 300 * time.Second
	}
	if cfg.Cache.Size == 0 {
		cfg.Cache.Size = 128
	}
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = "localhost:6379"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Metrics.Enabled == nil {
		enabled := true
		cfg.Metrics.Enabled = &enabled
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if cfg.Schedule.RefreshDays == 0 {
		cfg.Schedule.RefreshDays = model.DefaultDays
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	return cfg, nil
}

// MetricsEnabled reports whether the /metrics endpoint should be served.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// AlertsEnabled reports whether refresh failures are sent to Telegram.
func (c *Config) AlertsEnabled() bool {
	return c.Alerts.Telegram.BotToken != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for the redis backend")
	}
	if c.Sources.CoinGecko.Timeout < 0 || c.Sources.CryptoCompare.Timeout < 0 {
		return fmt.Errorf("sources timeout must not be negative")
	}
	if c.Schedule.RefreshDays < model.MinDays || c.Schedule.RefreshDays > model.MaxDays {
		return fmt.Errorf("schedule.refresh_days must be between %d and %d", model.MinDays, model.MaxDays)
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	if c.AlertsEnabled() && c.Alerts.Telegram.ChatID == "" {
		return fmt.Errorf("alerts.telegram.chat_id is required when a bot token is set")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	seen := make(map[string]bool, len(c.Coins))
	for i, coin := range c.Coins {
		if coin.Name == "" {
			return fmt.Errorf("coins[%d].name is required", i)
		}
		key := strings.ToLower(coin.Name)
		if seen[key] {
			return fmt.Errorf("coin %q is configured twice", coin.Name)
		}
		seen[key] = true
		for _, src := range []model.Source{model.SourceCoinGecko, model.SourceCryptoCompare} {
			if coin.ID(src) == "" {
				return fmt.Errorf("coin %q has no %s identifier", coin.Name, src)
			}
		}
	}
	return nil
}
