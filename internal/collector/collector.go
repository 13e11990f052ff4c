package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/model"
)

// New picks a quote source by provider name.
func New(provider, proxyURL string, timeout time.Duration, alpacaKey, alpacaSecret, alpacaBaseURL string) (Fetcher, error) {
	switch strings.ToLower(provider) {
	case "", "yahoo":
		return NewYahooFetcher(proxyURL, timeout), nil
	case "alpaca":
		return NewAlpacaFetcher(alpacaKey, alpacaSecret, alpacaBaseURL), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	}
	return nil, fmt.Errorf("unknown quote provider %q", provider)
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu     sync.Mutex
	Price  float64
	Prices map[string]float64
	Err    error
	Calls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuote(ctx context.Context, ticker string) (*model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	ticker = model.CanonicalTicker(ticker)
	price := m.Price
	if p, ok := m.Prices[ticker]; ok {
		price = p
	}
	return &model.Quote{Ticker: ticker, Price: price, Currency: "USD", Name: ticker, Timestamp: time.Now().UTC()}, nil
}

// CallCount reports how many quotes were requested.
func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// Throttle wraps a Fetcher so consecutive calls are at least Interval apart.
type Throttle struct {
	Fetcher  Fetcher
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewThrottle wraps f. A non-positive interval disables throttling.
func NewThrottle(f Fetcher, interval time.Duration) *Throttle {
	return &Throttle{Fetcher: f, Interval: interval}
}

func (t *Throttle) Name() string { return t.Fetcher.Name() }

// FetchQuote waits for the next slot, then delegates. Waiting aborts with ctx.
func (t *Throttle) FetchQuote(ctx context.Context, ticker string) (*model.Quote, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	q, err := t.Fetcher.FetchQuote(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Str("source", t.Fetcher.Name()).Msg("quote fetch failed")
	}
	return q, err
}

func (t *Throttle) wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Interval > 0 && !t.last.IsZero() {
		if d := t.Interval - time.Since(t.last); d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	t.last = time.Now()
	return nil
}
