// Package store is the read-modify-write facade over the persisted record collection.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"StockTracker/internal/apperr"
	"StockTracker/internal/calculator"
	"StockTracker/internal/model"
)

// Store keeps the canonical record collection in a single JSON file. Every call
// re-reads the file, so edits made by other processes are picked up; the mutex
// only serializes callers within this process. Across processes the last writer wins.
type Store struct {
	mu       sync.Mutex
	filePath string
	auth     Authorizer

	// Clock stamps exitedDate. Defaults to time.Now.
	Clock func() time.Time
}

// New opens the store at filePath, seeding it from templatePath (optional) on first run.
// A nil authorizer allows everything.
func New(filePath, templatePath string, auth Authorizer) (*Store, error) {
	if err := seed(filePath, templatePath); err != nil {
		return nil, apperr.Persistence("initialize stocks file", err)
	}
	if auth == nil {
		auth = AllowAll{}
	}
	return &Store{filePath: filePath, auth: auth, Clock: time.Now}, nil
}

// Authorize checks the caller credential in ctx for op without touching the file.
func (s *Store) Authorize(ctx context.Context, op Op) error { return s.auth.Authorize(ctx, op) }

// Path returns the backing file.
func (s *Store) Path() string { return s.filePath }

// GetAll returns every record in storage order.
func (s *Store) GetAll(_ context.Context) ([]model.StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// ReplaceAll discards the current collection and stores records instead.
func (s *Store) ReplaceAll(ctx context.Context, records []model.StockRecord) error {
	if err := s.auth.Authorize(ctx, OpReplaceAll); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(records); err != nil {
		return err
	}
	log.Info().Int("total", len(records)).Msg("store replaced")
	return nil
}

// Append adds one record. Ticker uniqueness is not enforced here.
func (s *Store) Append(ctx context.Context, rec model.StockRecord) error {
	if strings.TrimSpace(rec.Ticker) == "" {
		return apperr.Validation("ticker is required")
	}
	if err := s.auth.Authorize(ctx, OpAppend); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	if err := s.save(append(records, rec)); err != nil {
		return err
	}
	log.Info().Str("ticker", rec.Ticker).Msg("stock appended")
	return nil
}

// FindByTicker returns the first record whose ticker matches case-insensitively.
func (s *Store) FindByTicker(_ context.Context, ticker string) (model.StockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return model.StockRecord{}, err
	}
	i := indexOf(records, ticker)
	if i < 0 {
		return model.StockRecord{}, apperr.NotFound(model.CanonicalTicker(ticker))
	}
	return records[i], nil
}

// UpdateByTicker merges patch into the first matching record. Only present,
// non-empty fields overwrite, except exitNotes which may be cleared.
func (s *Store) UpdateByTicker(ctx context.Context, ticker string, patch model.StockPatch) (model.StockRecord, error) {
	return s.mutate(ctx, OpUpdate, ticker, func(rec *model.StockRecord) error {
		return ApplyPatch(rec, patch)
	})
}

// RecordExit closes the position: it stores the exit value, computes the return
// from the stored entry, flips status to Closed and stamps exitedDate.
// Empty exitNotes keep the notes already on the record.
func (s *Store) RecordExit(ctx context.Context, ticker, exitValue, exitNotes string) (model.StockRecord, error) {
	exitValue = strings.TrimSpace(exitValue)
	if exitValue == "" {
		return model.StockRecord{}, apperr.Validation("exit value is required")
	}
	return s.mutate(ctx, OpRecordExit, ticker, func(rec *model.StockRecord) error {
		Close(rec, exitValue, exitNotes, s.Clock())
		return nil
	})
}

// DeleteByTicker removes the first matching record.
func (s *Store) DeleteByTicker(ctx context.Context, ticker string) error {
	if strings.TrimSpace(ticker) == "" {
		return apperr.Validation("ticker is required")
	}
	if err := s.auth.Authorize(ctx, OpDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	i := indexOf(records, ticker)
	if i < 0 {
		return apperr.NotFound(model.CanonicalTicker(ticker))
	}
	if err := s.save(append(records[:i:i], records[i+1:]...)); err != nil {
		return err
	}
	log.Info().Str("ticker", model.CanonicalTicker(ticker)).Msg("stock deleted")
	return nil
}

func (s *Store) mutate(ctx context.Context, op Op, ticker string, fn func(*model.StockRecord) error) (model.StockRecord, error) {
	if strings.TrimSpace(ticker) == "" {
		return model.StockRecord{}, apperr.Validation("ticker is required")
	}
	if err := s.auth.Authorize(ctx, op); err != nil {
		return model.StockRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return model.StockRecord{}, err
	}
	i := indexOf(records, ticker)
	if i < 0 {
		return model.StockRecord{}, apperr.NotFound(model.CanonicalTicker(ticker))
	}
	if err := fn(&records[i]); err != nil {
		return model.StockRecord{}, err
	}
	if err := s.save(records); err != nil {
		return model.StockRecord{}, err
	}
	log.Info().Str("ticker", records[i].Ticker).Str("op", string(op)).Msg("stock updated")
	return records[i], nil
}

func (s *Store) load() ([]model.StockRecord, error) {
	records, err := LoadRecords(s.filePath)
	if err != nil {
		return nil, apperr.Persistence("read stocks file", err)
	}
	return records, nil
}

func (s *Store) save(records []model.StockRecord) error {
	if err := SaveRecords(s.filePath, records); err != nil {
		return apperr.Persistence("write stocks file", err)
	}
	return nil
}

func indexOf(records []model.StockRecord, ticker string) int {
	want := model.CanonicalTicker(ticker)
	for i, r := range records {
		if model.CanonicalTicker(r.Ticker) == want {
			return i
		}
	}
	return -1
}

// Close marks rec as exited at exitValue: return computed from the stored entry,
// status Closed, exitedDate stamped with now. Blank notes keep the existing ones.
func Close(rec *model.StockRecord, exitValue, notes string, now time.Time) {
	rec.ExitValue = strings.TrimSpace(exitValue)
	rec.ReturnPercent = calculator.ReturnPercent(rec.Entry, rec.ExitValue)
	rec.Status = model.StatusClosed
	rec.ExitedDate = now.UTC().Format(time.RFC3339)
	if notes := strings.TrimSpace(notes); notes != "" {
		rec.ExitNotes = notes
	}
}

// ApplyPatch merges patch into rec. When the patch touches entry or exitValue
// and the merged record has an exit value, returnPercent is recomputed.
//
// Status only moves Open to Closed, and only through Close: a patch may not
// close a record, reopen a closed one, or give an open record an exit value.
// On error rec is left untouched.
func ApplyPatch(rec *model.StockRecord, p model.StockPatch) error {
	next := *rec
	set := func(dst *string, v *model.FlexString) bool {
		if v == nil || v.String() == "" {
			return false
		}
		*dst = v.String()
		return true
	}
	set(&next.Name, p.Name)
	if p.Type != nil && p.Type.String() != "" {
		next.Type = model.CanonicalType(p.Type.String())
	}
	if p.Status != nil && p.Status.String() != "" {
		next.Status = model.CanonicalStatus(p.Status.String())
	}
	entryChanged := set(&next.Entry, p.Entry)
	set(&next.CurrentPrice, p.CurrentPrice)
	set(&next.PriceTarget, p.PriceTarget)
	exitChanged := set(&next.ExitValue, p.ExitValue)
	set(&next.ReturnPercent, p.ReturnPercent)
	set(&next.AlertDate, p.AlertDate)
	set(&next.SuggestedBy, p.SuggestedBy)
	if p.ExitNotes != nil {
		next.ExitNotes = p.ExitNotes.String()
	}

	wasClosed := rec.Status == model.StatusClosed
	isClosed := next.Status == model.StatusClosed
	switch {
	case isClosed && !wasClosed:
		return apperr.Validation("record an exit to close %s", rec.Ticker)
	case wasClosed && !isClosed:
		return apperr.Validation("closed position %s cannot be reopened", rec.Ticker)
	case exitChanged && !isClosed:
		return apperr.Validation("exit value requires a closed position, record an exit for %s", rec.Ticker)
	}

	if (entryChanged || exitChanged) && next.ExitValue != "" {
		next.ReturnPercent = calculator.ReturnPercent(next.Entry, next.ExitValue)
	}
	*rec = next
	return nil
}
