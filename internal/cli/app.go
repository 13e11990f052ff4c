// Package cli provides the command-line interface of the tracker.
package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/collector"
	"StockTracker/internal/config"
	"StockTracker/internal/notifier"
	"StockTracker/internal/pricecache"
	"StockTracker/internal/recorder"
	"StockTracker/internal/scheduler"
	"StockTracker/internal/store"
	"StockTracker/internal/tracker"
)

// App holds the wired application dependencies.
type App struct {
	Config    *config.Config
	Service   *tracker.Service
	Refresher *scheduler.Refresher
	Telegram  *notifier.TelegramNotifier

	closers []io.Closer
}

// Build wires the store, price cache, quote source, recorder and notifier from cfg.
// Optional components that fail to open degrade to no-ops with a warning.
func Build(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	var auth store.Authorizer = store.AllowAll{}
	if cfg.Server.AccessCode != "" {
		auth = store.AccessCode{Code: cfg.Server.AccessCode}
	}
	st, err := store.New(cfg.Store.Path, cfg.Store.Template, auth)
	if err != nil {
		return nil, err
	}

	slot, err := pricecache.OpenSlot(cfg.PriceCache.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.PriceCache.Path).Msg("price cache slot unavailable, caching in memory")
		slot = nil
	}
	if c, ok := slot.(io.Closer); ok {
		app.closers = append(app.closers, c)
	}
	cache := pricecache.New(slot, cfg.PriceCache.TTL)
	if err := cache.Load(); err != nil {
		log.Warn().Err(err).Msg("price cache not loaded")
	}

	fetcher, err := collector.New(cfg.Quotes.Provider, cfg.Proxy, cfg.Quotes.Timeout,
		cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	if err != nil {
		return nil, err
	}
	quotes := collector.NewThrottle(fetcher, cfg.Quotes.MinInterval)
	log.Info().Str("source", fetcher.Name()).Dur("min_interval", cfg.Quotes.MinInterval).Msg("quote source ready")

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	app.closers = append(app.closers, rec)

	var n notifier.Notifier = notifier.Noop{}
	if cfg.TelegramEnabled() {
		app.Telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = notifier.Async{Next: app.Telegram}
	}

	app.Service = tracker.New(st, cache, quotes, rec, n)
	// The throttle already spaces external calls; cache hits need no delay.
	app.Refresher = scheduler.NewRefresher(st, app.Service, cfg.Quotes.MaxPerRun, 0)
	return app, nil
}

// Context returns ctx carrying the configured access code, so local commands
// pass the same authorizer the HTTP API enforces.
func (a *App) Context(ctx context.Context) context.Context {
	if a.Config.Server.AccessCode == "" {
		return ctx
	}
	return store.WithCredential(ctx, a.Config.Server.AccessCode)
}

// Close releases the database handles.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
