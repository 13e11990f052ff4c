// Package pricecache remembers the last known price per ticker for a freshness window
// so that the rate-limited quote sources are only called when needed.
package pricecache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/model"
)

// DefaultTTL is how long a cached price stays usable.
const DefaultTTL = 24 * time.Hour

// Entry is one cached price.
type Entry struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency,omitempty"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Slot is a durable location for the serialized cache.
type Slot interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	slot    Slot
	ttl     time.Duration

	// Clock is the time source. Defaults to time.Now.
	Clock func() time.Time
}

// New creates an empty cache persisted to slot. A nil slot keeps the cache in memory.
func New(slot Slot, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{entries: make(map[string]Entry), slot: slot, ttl: ttl, Clock: time.Now}
}

// Load repopulates memory from the slot, dropping entries that are already stale.
func (c *Cache) Load() error {
	if c.slot == nil {
		return nil
	}
	data, err := c.slot.Load()
	if err != nil {
		return fmt.Errorf("load price cache: %w", err)
	}
	stored := map[string]Entry{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("decode price cache: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.Clock()
	c.entries = make(map[string]Entry, len(stored))
	dropped := 0
	for k, e := range stored {
		if !c.fresh(e, now) {
			dropped++
			continue
		}
		c.entries[model.CanonicalTicker(k)] = e
	}
	log.Debug().Int("entries", len(c.entries)).Int("stale", dropped).Msg("price cache loaded")
	return nil
}

// Get returns the cached price when it is younger than the TTL.
func (c *Cache) Get(ticker string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[model.CanonicalTicker(ticker)]
	if !ok || !c.fresh(e, c.Clock()) {
		return Entry{}, false
	}
	return e, true
}

// Put stores price stamped with the current time and writes the cache through to the slot.
// A failing slot leaves the in-memory entry in place.
func (c *Cache) Put(ticker string, price float64) error {
	return c.put(Entry{Ticker: model.CanonicalTicker(ticker), Price: price})
}

// PutQuote stores a quote together with its currency and name.
func (c *Cache) PutQuote(q *model.Quote) error {
	return c.put(Entry{Ticker: model.CanonicalTicker(q.Ticker), Price: q.Price, Currency: q.Currency, Name: q.Name})
}

// put holds the lock through the slot write so saves land in Put order.
func (c *Cache) put(e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.Timestamp = c.Clock()
	c.entries[e.Ticker] = e
	if c.slot == nil {
		return nil
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("encode price cache: %w", err)
	}
	if err := c.slot.Save(data); err != nil {
		return fmt.Errorf("save price cache: %w", err)
	}
	return nil
}

// Len reports how many entries are held, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) fresh(e Entry, now time.Time) bool {
	return now.Sub(e.Timestamp) < c.ttl
}
