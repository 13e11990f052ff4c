package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"PORT", "ACCESS_CODE", "STOCKS_FILE", "PRICE_CACHE_PATH", "QUOTE_PROVIDER",
	"APCA_API_KEY_ID", "APCA_API_SECRET_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"SQLITE_PATH", "SNAPSHOT_CRON", "HTTPS_PROXY", "LOG_LEVEL", "QUOTE_MAX_PER_RUN",
}

// clearEnv runs the test from an empty directory with the overrides unset.
func clearEnv(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := clearEnv(t)
	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":3000" || cfg.Store.Path != "data/stocks.json" || cfg.Quotes.Provider != "yahoo" {
		t.Errorf("defaults: %+v", cfg)
	}
	if cfg.PriceCache.TTL != 24*time.Hour || cfg.Quotes.MaxPerRun != 5 {
		t.Errorf("defaults: ttl=%v max=%d", cfg.PriceCache.TTL, cfg.Quotes.MaxPerRun)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := clearEnv(t)
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  addr: ":8080"
  access_code: "from-file"
store:
  path: /srv/stocks.json
price_cache:
  ttl: 1h
quotes:
  provider: mock
  min_interval: 2s
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACCESS_CODE", "from-env")
	t.Setenv("PORT", "9090")
	t.Setenv("QUOTE_MAX_PER_RUN", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.AccessCode != "from-env" {
		t.Errorf("env overrides: %+v", cfg.Server)
	}
	if cfg.Store.Path != "/srv/stocks.json" || cfg.PriceCache.TTL != time.Hour || cfg.Quotes.MinInterval != 2*time.Second {
		t.Errorf("yaml values: %+v", cfg)
	}
	if cfg.Quotes.MaxPerRun != 3 {
		t.Errorf("max per run = %d", cfg.Quotes.MaxPerRun)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := clearEnv(t)
	os.Unsetenv("SQLITE_PATH")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SQLITE_PATH=/tmp/history.db\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.SQLitePath != "/tmp/history.db" {
		t.Errorf("sqlite path = %q", cfg.Database.SQLitePath)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	dir := clearEnv(t)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		applyDefaults(c)
		return c
	}
	c := base()
	c.Quotes.Provider = "alpaca"
	if err := c.Validate(); err == nil {
		t.Error("alpaca without keys should fail")
	}
	c.Alpaca.APIKey, c.Alpaca.APISecret = "k", "s"
	if err := c.Validate(); err != nil {
		t.Errorf("alpaca with keys: %v", err)
	}

	c = base()
	c.Quotes.Provider = "bloomberg"
	if err := c.Validate(); err == nil {
		t.Error("unknown provider should fail")
	}

	c = base()
	c.Telegram.BotToken = "t"
	if err := c.Validate(); err == nil {
		t.Error("token without chat id should fail")
	}
	c.Telegram.ChatID = "1"
	if err := c.Validate(); err != nil || !c.TelegramEnabled() {
		t.Errorf("telegram pair: %v", err)
	}
}
