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

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr        string `yaml:"addr"`
		AccessCode  string `yaml:"access_code"`
		StaticDir   string `yaml:"static_dir"`
		MaxUploadMB int64  `yaml:"max_upload_mb"`
	} `yaml:"server"`
	Store struct {
		Path     string `yaml:"path"`
		Template string `yaml:"template"`
	} `yaml:"store"`
	PriceCache struct {
		Path string        `yaml:"path"`
		TTL  time.Duration `yaml:"ttl"`
	} `yaml:"price_cache"`
	Quotes struct {
		Provider    string        `yaml:"provider"`
		MinInterval time.Duration `yaml:"min_interval"`
		MaxPerRun   int           `yaml:"max_per_run"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"quotes"`
	Alpaca struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		BaseURL   string `yaml:"base_url"`
	} `yaml:"alpaca"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		SnapshotCron string `yaml:"snapshot_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or the default location.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies .env and environment variable
// overrides, then defaults. A missing file or .env is not an error.
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

	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	str("ACCESS_CODE", &cfg.Server.AccessCode)
	str("STATIC_DIR", &cfg.Server.StaticDir)
	str("STOCKS_FILE", &cfg.Store.Path)
	str("STOCKS_TEMPLATE", &cfg.Store.Template)
	str("PRICE_CACHE_PATH", &cfg.PriceCache.Path)
	str("QUOTE_PROVIDER", &cfg.Quotes.Provider)
	str("APCA_API_KEY_ID", &cfg.Alpaca.APIKey)
	str("APCA_API_SECRET_KEY", &cfg.Alpaca.APISecret)
	str("APCA_API_BASE_URL", &cfg.Alpaca.BaseURL)
	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	str("SQLITE_PATH", &cfg.Database.SQLitePath)
	str("SNAPSHOT_CRON", &cfg.Schedule.SnapshotCron)
	str("HTTPS_PROXY", &cfg.Proxy)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	if v := os.Getenv("QUOTE_MAX_PER_RUN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Quotes.MaxPerRun = n
		}
	}
	if v := os.Getenv("QUOTE_MIN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Quotes.MinInterval = d
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 10
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/stocks.json"
	}
	if cfg.PriceCache.Path == "" {
		cfg.PriceCache.Path = "data/price_cache.json"
	}
	if cfg.PriceCache.TTL == 0 {
		cfg.PriceCache.TTL = 24 * time.Hour
	}
	if cfg.Quotes.Provider == "" {
		cfg.Quotes.Provider = "yahoo"
	}
	if cfg.Quotes.MinInterval == 0 {
		cfg.Quotes.MinInterval = 12 * time.Second
	}
	if cfg.Quotes.MaxPerRun == 0 {
		cfg.Quotes.MaxPerRun = 5
	}
	if cfg.Quotes.Timeout == 0 {
		cfg.Quotes.Timeout = 30 * time.Second
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stock_tracker.db"
	}
	if cfg.Schedule.SnapshotCron == "" {
		cfg.Schedule.SnapshotCron = "0 0 2 * * *"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Quotes.Provider) {
	case "yahoo", "mock":
	case "alpaca":
		if c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "" {
			return fmt.Errorf("alpaca.api_key and alpaca.api_secret are required for the alpaca provider")
		}
	default:
		return fmt.Errorf("quotes.provider %q is not one of yahoo, alpaca, mock", c.Quotes.Provider)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Quotes.MaxPerRun < 0 {
		return fmt.Errorf("quotes.max_per_run must not be negative")
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	if c.PriceCache.TTL < 0 {
		return fmt.Errorf("price_cache.ttl must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether notifications and chat commands are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
