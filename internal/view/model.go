package view

import (
	"slices"
	"time"

	"StockTracker/internal/model"
)

// Model is the client-side view state: the last snapshot fetched from the store
// plus the active filter and sort. Mutations are reconciled by patching the
// snapshot with the record the store returned, or by reloading it.
type Model struct {
	snapshot []model.StockRecord
	filter   Filter
	sort     Sort
}

// NewModel starts with an empty snapshot, no filters and the default sort.
func NewModel() *Model {
	return &Model{sort: DefaultSort}
}

// Reload replaces the snapshot.
func (m *Model) Reload(records []model.StockRecord) {
	m.snapshot = slices.Clone(records)
}

// Snapshot returns a copy of the held records in storage order.
func (m *Model) Snapshot() []model.StockRecord { return slices.Clone(m.snapshot) }

// Upsert replaces the first record with the same ticker, or appends rec.
func (m *Model) Upsert(rec model.StockRecord) {
	want := model.CanonicalTicker(rec.Ticker)
	for i, r := range m.snapshot {
		if model.CanonicalTicker(r.Ticker) == want {
			m.snapshot[i] = rec
			return
		}
	}
	m.snapshot = append(m.snapshot, rec)
}

// Remove drops the first record with ticker, mirroring the store's delete.
func (m *Model) Remove(ticker string) {
	want := model.CanonicalTicker(ticker)
	for i, r := range m.snapshot {
		if model.CanonicalTicker(r.Ticker) == want {
			m.snapshot = slices.Delete(m.snapshot, i, i+1)
			return
		}
	}
}

func (m *Model) SetFilter(f Filter) { m.filter = f }

func (m *Model) Filter() Filter { return m.filter }

func (m *Model) Sort() Sort { return m.sort }

// SetSort selects a column and direction directly.
func (m *Model) SetSort(s Sort) { m.sort = s }

// Click mimics a column header click: the active column flips direction,
// a new column starts descending.
func (m *Model) Click(col string) {
	if m.sort.Column == col {
		m.sort.Desc = !m.sort.Desc
		return
	}
	m.sort = Sort{Column: col, Desc: true}
}

// Rows renders the current view.
func (m *Model) Rows(now time.Time) []model.StockRecord {
	return Apply(m.snapshot, m.filter, m.sort, now)
}
