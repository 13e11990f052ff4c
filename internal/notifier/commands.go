package notifier

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/model"
	"StockTracker/internal/view"
)

// RecordSource is the read side of the record store.
type RecordSource interface {
	GetAll(ctx context.Context) ([]model.StockRecord, error)
}

// Commands answers read-only chat commands from the current record set.
type Commands struct {
	Source RecordSource
	Clock  func() time.Time
}

const helpText = "/open - open positions\n/closed - closed positions\n/stock TICKER - one record\n/help - this message"

// Handle implements CommandHandler.
func (c *Commands) Handle(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	// Strip the @botname suffix Telegram adds in group chats.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cmd {
	case "/start", "/help":
		return helpText
	case "/open":
		return c.list(ctx, "Open positions", view.Filter{Status: model.StatusOpen})
	case "/closed":
		return c.list(ctx, "Closed positions", view.Filter{Status: model.StatusClosed})
	case "/stock":
		if len(fields) < 2 {
			return "usage: /stock TICKER"
		}
		return c.stock(ctx, fields[1])
	}
	return "unknown command\n\n" + helpText
}

func (c *Commands) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

func (c *Commands) list(ctx context.Context, title string, f view.Filter) string {
	recs, err := c.Source.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load records for command")
		return "could not read stocks"
	}
	return FormatList(title, view.Apply(recs, f, view.DefaultSort, c.now()))
}

func (c *Commands) stock(ctx context.Context, ticker string) string {
	recs, err := c.Source.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load records for command")
		return "could not read stocks"
	}
	want := model.CanonicalTicker(ticker)
	for _, r := range recs {
		if model.CanonicalTicker(r.Ticker) == want {
			return FormatStock(view.Decorate(r))
		}
	}
	return "stock " + want + " not found"
}
