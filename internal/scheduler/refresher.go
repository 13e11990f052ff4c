// Package scheduler runs the background work: the ad-hoc price refresh task and
// the cron-driven history snapshot.
package scheduler

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/model"
)

// ErrRunning is returned when a refresh is requested while one is in flight.
var ErrRunning = errors.New("price refresh already running")

// Records is the part of the store the refresher reads and patches.
type Records interface {
	GetAll(ctx context.Context) ([]model.StockRecord, error)
	UpdateByTicker(ctx context.Context, ticker string, patch model.StockPatch) (model.StockRecord, error)
}

// Quoter returns a price, consulting the cache before the quote source.
type Quoter interface {
	Quote(ctx context.Context, ticker string) (*model.Quote, error)
}

// Refresher updates currentPrice of open records from the quote source. One run
// at a time; each run probes at most MaxPerRun tickers with Delay between calls.
type Refresher struct {
	Records   Records
	Quotes    Quoter
	MaxPerRun int
	Delay     time.Duration

	seq atomic.Uint64

	mu      sync.Mutex
	applied map[string]uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

// Result summarizes one run.
type Result struct {
	Updated int
	Failed  int
	Skipped int
}

func NewRefresher(records Records, quotes Quoter, maxPerRun int, delay time.Duration) *Refresher {
	return &Refresher{
		Records:   records,
		Quotes:    quotes,
		MaxPerRun: maxPerRun,
		Delay:     delay,
		applied:   make(map[string]uint64),
	}
}

// Start launches a run in the background. The run stops when ctx is cancelled or Stop is called.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		res, err := r.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("price refresh failed")
		}
		log.Info().Int("updated", res.Updated).Int("failed", res.Failed).Int("skipped", res.Skipped).Msg("price refresh finished")

		r.mu.Lock()
		r.cancel, r.done = nil, nil
		r.mu.Unlock()
	}()
	return nil
}

// Running reports whether a background run is in flight.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done != nil
}

// Stop cancels the background run, if any, and waits for it to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run refreshes synchronously. Per-ticker failures are logged and counted, never returned.
func (r *Refresher) Run(ctx context.Context) (Result, error) {
	var res Result
	recs, err := r.Records.GetAll(ctx)
	if err != nil {
		return res, err
	}

	probed := 0
	for _, rec := range recs {
		if rec.IsClosed() || rec.IsOption() || model.CanonicalTicker(rec.Ticker) == "" {
			continue
		}
		if r.MaxPerRun > 0 && probed >= r.MaxPerRun {
			res.Skipped++
			continue
		}
		if probed > 0 && r.Delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(r.Delay):
			}
		}
		probed++

		ok, err := r.Refresh(ctx, rec.Ticker)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
		case ok:
			res.Updated++
		}
	}
	return res, nil
}

// Refresh fetches one ticker and writes the price back. It reports false when the
// response was superseded by a newer request for the same ticker.
func (r *Refresher) Refresh(ctx context.Context, ticker string) (bool, error) {
	ticker = model.CanonicalTicker(ticker)
	n := r.seq.Add(1)

	q, err := r.Quotes.Quote(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("price refresh skipped")
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applied[ticker] > n {
		log.Debug().Str("ticker", ticker).Uint64("seq", n).Msg("stale price response discarded")
		return false, nil
	}
	r.applied[ticker] = n

	price := strconv.FormatFloat(q.Price, 'f', -1, 64)
	if _, err := r.Records.UpdateByTicker(ctx, ticker, model.StockPatch{CurrentPrice: model.Str(price)}); err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("price write-back failed")
		return false, err
	}
	return true, nil
}
