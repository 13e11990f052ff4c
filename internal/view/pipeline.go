package view

import (
	"time"

	"StockTracker/internal/calculator"
	"StockTracker/internal/model"
)

// Apply filters, decorates and orders a copy of records. The input is never modified.
func Apply(records []model.StockRecord, f Filter, s Sort, now time.Time) []model.StockRecord {
	out := Select(records, f, now)
	for i := range out {
		out[i] = Decorate(out[i])
	}
	Order(out, s)
	return out
}

// Decorate fills display-only metrics that can be derived from the record's prices.
// Open positions get a return since entry from the current price, closed ones a
// return percent from the exit value; stored values are never overwritten.
func Decorate(rec model.StockRecord) model.StockRecord {
	if rec.ReturnSinceEntry == "" && !rec.IsClosed() {
		rec.ReturnSinceEntry = calculator.ReturnSinceEntry(rec.Entry, rec.CurrentPrice)
	}
	if rec.ReturnPercent == "" && rec.ExitValue != "" {
		rec.ReturnPercent = calculator.ReturnPercent(rec.Entry, rec.ExitValue)
	}
	return rec
}
