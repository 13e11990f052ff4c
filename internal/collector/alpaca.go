package collector

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"StockTracker/internal/model"
)

// AlpacaFetcher implements Fetcher with the Alpaca market data API. The asset
// name comes from the trading API and is best effort.
type AlpacaFetcher struct {
	mdClient    *marketdata.Client
	tradeClient *alpaca.Client
}

// NewAlpacaFetcher builds both clients. Empty credentials fall back to the
// APCA_API_* environment variables read by the SDK.
func NewAlpacaFetcher(key, secret, baseURL string) *AlpacaFetcher {
	return &AlpacaFetcher{
		mdClient: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    key,
			APISecret: secret,
		}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    key,
			APISecret: secret,
			BaseURL:   baseURL,
		}),
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// FetchQuote uses the latest trade price. The SDK calls are not context aware,
// so cancellation is only checked before the request.
func (f *AlpacaFetcher) FetchQuote(ctx context.Context, ticker string) (*model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ticker = model.CanonicalTicker(ticker)
	trade, err := f.mdClient.GetLatestTrade(ticker, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return nil, fmt.Errorf("alpaca latest trade: %w", err)
	}
	if trade == nil || trade.Price <= 0 {
		return nil, fmt.Errorf("alpaca: no trade for %s", ticker)
	}

	q := &model.Quote{
		Ticker:    ticker,
		Price:     trade.Price,
		Currency:  "USD",
		Timestamp: trade.Timestamp.UTC(),
	}
	if asset, err := f.tradeClient.GetAsset(ticker); err == nil && asset != nil {
		q.Name = asset.Name
	}
	return q, nil
}
