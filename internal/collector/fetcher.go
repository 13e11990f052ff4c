package collector

import (
	"context"

	"StockTracker/internal/model"
)

// Fetcher is a source of latest quotes.
type Fetcher interface {
	FetchQuote(ctx context.Context, ticker string) (*model.Quote, error)
	Name() string
}
