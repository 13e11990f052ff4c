// Package tracker composes the record store, the price cache, quote sources and
// the history/notification side channels into the operations exposed by the
// HTTP API, the CLI and the chat bot.
package tracker

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/apperr"
	"StockTracker/internal/calculator"
	"StockTracker/internal/collector"
	"StockTracker/internal/model"
	"StockTracker/internal/normalizer"
	"StockTracker/internal/notifier"
	"StockTracker/internal/pricecache"
	"StockTracker/internal/recorder"
	"StockTracker/internal/store"
	"StockTracker/internal/view"
)

// DefaultSuggester is stamped on manual entries that name no author.
const DefaultSuggester = "User"

// Service is safe for concurrent use; the store serializes its own writes.
type Service struct {
	Store    *store.Store
	Cache    *pricecache.Cache
	Quotes   collector.Fetcher
	Recorder recorder.Recorder
	Notifier notifier.Notifier

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// New wires a service. Nil side channels become no-ops; a nil cache is in-memory only.
func New(st *store.Store, cache *pricecache.Cache, quotes collector.Fetcher, rec recorder.Recorder, n notifier.Notifier) *Service {
	if cache == nil {
		cache = pricecache.New(nil, pricecache.DefaultTTL)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if n == nil {
		n = notifier.Noop{}
	}
	return &Service{Store: st, Cache: cache, Quotes: quotes, Recorder: rec, Notifier: n, Clock: time.Now}
}

// All returns the raw collection in storage order.
func (s *Service) All(ctx context.Context) ([]model.StockRecord, error) {
	return s.Store.GetAll(ctx)
}

// List returns the filtered, decorated and sorted view.
func (s *Service) List(ctx context.Context, f view.Filter, srt view.Sort) ([]model.StockRecord, error) {
	recs, err := s.Store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return view.Apply(recs, f, srt, s.Clock()), nil
}

// UploadResult summarizes a bulk import.
type UploadResult struct {
	Stocks []model.StockRecord `json:"stocks"`
	Total  int                 `json:"total"`
	Sheets int                 `json:"sheets"`
}

// Upload parses a workbook and replaces the whole collection with its rows.
// Nothing is written when parsing fails.
func (s *Service) Upload(ctx context.Context, r io.Reader, filename string) (*UploadResult, error) {
	sheets, err := normalizer.ReadWorkbook(r, filename)
	if err != nil {
		return nil, err
	}
	recs := normalizer.Normalize(sheets, s.Clock())
	if err := s.Store.ReplaceAll(ctx, recs); err != nil {
		return nil, err
	}
	log.Info().Str("file", filename).Int("sheets", len(sheets)).Int("total", len(recs)).Msg("workbook imported")

	if err := s.Recorder.RecordUpload(&recorder.UploadEvent{Filename: filename, Sheets: len(sheets), Total: len(recs)}); err != nil {
		log.Error().Err(err).Msg("record upload")
	}
	s.notify(notifier.FormatUpload(filename, len(recs)))
	return &UploadResult{Stocks: recs, Total: len(recs), Sheets: len(sheets)}, nil
}

// Add appends a manually entered record. A ticker that is already tracked is a conflict.
func (s *Service) Add(ctx context.Context, in model.StockInput) (model.StockRecord, error) {
	ticker := model.CanonicalTicker(in.Ticker.String())
	if ticker == "" {
		return model.StockRecord{}, apperr.Validation("ticker is required")
	}
	if _, err := s.Store.FindByTicker(ctx, ticker); err == nil {
		return model.StockRecord{}, apperr.Conflict("stock %s is already tracked", ticker)
	} else if !isNotFound(err) {
		return model.StockRecord{}, err
	}

	now := s.Clock()
	rec := model.StockRecord{
		Ticker:      ticker,
		Type:        model.TypeStock,
		Status:      model.StatusOpen,
		AlertDate:   now.Format("1/2/2006"),
		AddedDate:   now.UTC().Format(time.RFC3339),
		SuggestedBy: DefaultSuggester,
		Sheet:       model.ManualSheet,
	}
	// An exit value closes the new record the way an exit does.
	patch := in.StockPatch
	exitValue := ""
	if patch.ExitValue != nil {
		exitValue = patch.ExitValue.String()
	}
	if patch.Status != nil && model.CanonicalStatus(patch.Status.String()) == model.StatusClosed {
		if exitValue == "" {
			return model.StockRecord{}, apperr.Validation("exit value is required for a closed position")
		}
		patch.Status = nil
	}
	patch.ExitValue, patch.ReturnPercent = nil, nil
	if err := store.ApplyPatch(&rec, patch); err != nil {
		return model.StockRecord{}, err
	}
	if exitValue != "" {
		store.Close(&rec, exitValue, "", now)
	}
	if err := s.Store.Append(ctx, rec); err != nil {
		return model.StockRecord{}, err
	}
	return rec, nil
}

// Edit merges a partial update into the tracked record.
func (s *Service) Edit(ctx context.Context, ticker string, patch model.StockPatch) (model.StockRecord, error) {
	return s.Store.UpdateByTicker(ctx, ticker, patch)
}

// Exit records the exit of a position and reports it on the side channels.
func (s *Service) Exit(ctx context.Context, ticker, exitValue, notes string) (model.StockRecord, error) {
	rec, err := s.Store.RecordExit(ctx, ticker, exitValue, notes)
	if err != nil {
		return model.StockRecord{}, err
	}
	if err := s.Recorder.RecordExit(&recorder.ExitEvent{
		Ticker:        rec.Ticker,
		Entry:         rec.Entry,
		ExitValue:     rec.ExitValue,
		ReturnPercent: rec.ReturnPercent,
		Notes:         rec.ExitNotes,
	}); err != nil {
		log.Error().Err(err).Msg("record exit")
	}
	s.notify(notifier.FormatExit(rec))
	return rec, nil
}

// Delete removes the tracked record.
func (s *Service) Delete(ctx context.Context, ticker string) error {
	if strings.TrimSpace(ticker) == "" {
		return apperr.Validation("ticker is required")
	}
	rec, err := s.Store.FindByTicker(ctx, ticker)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteByTicker(ctx, ticker); err != nil {
		return err
	}
	if err := s.Recorder.RecordDeletion(&recorder.DeletionEvent{Ticker: rec.Ticker, Status: rec.Status}); err != nil {
		log.Error().Err(err).Msg("record deletion")
	}
	return nil
}

// Quote returns the latest price, from the cache when fresh, otherwise from the
// quote source. Source failures surface as upstream errors.
func (s *Service) Quote(ctx context.Context, ticker string) (*model.Quote, error) {
	ticker = model.CanonicalTicker(ticker)
	if ticker == "" {
		return nil, apperr.Validation("ticker is required")
	}
	if e, ok := s.Cache.Get(ticker); ok {
		currency := e.Currency
		if currency == "" {
			currency = "USD"
		}
		return &model.Quote{Ticker: ticker, Price: e.Price, Currency: currency, Name: e.Name, Timestamp: e.Timestamp}, nil
	}
	if s.Quotes == nil {
		return nil, apperr.Upstream("error fetching stock price", errNoSource)
	}
	q, err := s.Quotes.FetchQuote(ctx, ticker)
	if err != nil {
		return nil, apperr.Upstream("error fetching stock price", err)
	}
	if q.Ticker == "" {
		q.Ticker = ticker
	}
	if err := s.Cache.PutQuote(q); err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("price cache write failed")
	}
	return q, nil
}

// PreviewReturn computes the return an exit would produce without storing anything.
func (s *Service) PreviewReturn(entry, exitValue string) string {
	return calculator.ReturnPercent(entry, exitValue)
}

// Snapshot writes the current collection to the history database.
func (s *Service) Snapshot(ctx context.Context) error {
	recs, err := s.Store.GetAll(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	snap := &recorder.Snapshot{Taken: s.Clock(), Records: data}
	for _, r := range recs {
		if r.IsClosed() {
			snap.Closed++
		} else {
			snap.Open++
		}
	}
	return s.Recorder.RecordSnapshot(snap)
}

func (s *Service) notify(text string) {
	if err := s.Notifier.Send(text); err != nil {
		log.Warn().Err(err).Msg("notification failed")
	}
}
