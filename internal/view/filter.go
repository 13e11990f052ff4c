// Package view derives the ordered, filtered table shown to the user from a
// read-only snapshot of the record store.
package view

import (
	"fmt"
	"strings"
	"time"

	"StockTracker/internal/model"
)

// Window is a relative recency filter on addedDate.
type Window string

const (
	WindowAll   Window = ""
	Window24h   Window = "24h"
	Window7d    Window = "7d"
	Window30d   Window = "30d"
	Window6m    Window = "6m"
	Window1y    Window = "1y"
	windowAlias Window = "all"
)

// ParseWindow validates a window label. "" and "all" disable the filter.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case WindowAll, windowAlias:
		return WindowAll, nil
	case Window24h, Window7d, Window30d, Window6m, Window1y:
		return w, nil
	}
	return WindowAll, fmt.Errorf("unknown date window %q", s)
}

// Cutoff returns the earliest addedDate the window retains.
func (w Window) Cutoff(now time.Time) time.Time {
	switch w {
	case Window24h:
		return now.Add(-24 * time.Hour)
	case Window7d:
		return now.AddDate(0, 0, -7)
	case Window30d:
		return now.AddDate(0, -1, 0)
	case Window6m:
		return now.AddDate(0, -6, 0)
	case Window1y:
		return now.AddDate(-1, 0, 0)
	}
	return time.Time{}
}

// Filter holds the active predicates; zero values are inactive. All active
// predicates must match.
type Filter struct {
	Type        string
	Status      string
	Search      string
	SuggestedBy string
	Window      Window
}

// Match reports whether rec passes every active predicate.
func (f Filter) Match(rec model.StockRecord, now time.Time) bool {
	if f.Type != "" && !strings.EqualFold(strings.TrimSpace(rec.Type), strings.TrimSpace(f.Type)) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(strings.TrimSpace(rec.Status), strings.TrimSpace(f.Status)) {
		return false
	}
	if f.SuggestedBy != "" && !strings.EqualFold(strings.TrimSpace(rec.SuggestedBy), strings.TrimSpace(f.SuggestedBy)) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(rec.Ticker), q) && !strings.Contains(strings.ToLower(rec.Name), q) {
			return false
		}
	}
	if f.Window != WindowAll {
		added, ok := parseInstant(rec.AddedDate)
		if !ok || added.Before(f.Window.Cutoff(now)) {
			return false
		}
	}
	return true
}

// Select returns the records matching f, in input order.
func Select(records []model.StockRecord, f Filter, now time.Time) []model.StockRecord {
	out := make([]model.StockRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r, now) {
			out = append(out, r)
		}
	}
	return out
}
