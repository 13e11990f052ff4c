package view

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"StockTracker/internal/calculator"
	"StockTracker/internal/model"
)

// Column names match the JSON keys of model.StockRecord.
const (
	ColTicker           = "ticker"
	ColName             = "name"
	ColType             = "type"
	ColStatus           = "status"
	ColEntry            = "entry"
	ColCurrentPrice     = "currentPrice"
	ColPriceTarget      = "priceTarget"
	ColExitValue        = "exitValue"
	ColReturnPercent    = "returnPercent"
	ColReturnSinceEntry = "returnSinceEntry"
	ColAlertDate        = "alertDate"
	ColAddedDate        = "addedDate"
	ColExitedDate       = "exitedDate"
	ColExitNotes        = "exitNotes"
	ColSuggestedBy      = "suggestedBy"
	ColSheet            = "sheet"
)

type kind int

const (
	lexical kind = iota
	numeric
	instant
)

type column struct {
	kind  kind
	value func(model.StockRecord) string
}

var columns = map[string]column{
	ColTicker:           {lexical, func(r model.StockRecord) string { return r.Ticker }},
	ColName:             {lexical, func(r model.StockRecord) string { return r.Name }},
	ColType:             {lexical, func(r model.StockRecord) string { return r.Type }},
	ColStatus:           {lexical, func(r model.StockRecord) string { return r.Status }},
	ColEntry:            {numeric, func(r model.StockRecord) string { return r.Entry }},
	ColCurrentPrice:     {numeric, func(r model.StockRecord) string { return r.CurrentPrice }},
	ColPriceTarget:      {numeric, func(r model.StockRecord) string { return r.PriceTarget }},
	ColExitValue:        {lexical, func(r model.StockRecord) string { return r.ExitValue }},
	ColReturnPercent:    {numeric, func(r model.StockRecord) string { return r.ReturnPercent }},
	ColReturnSinceEntry: {lexical, func(r model.StockRecord) string { return r.ReturnSinceEntry }},
	ColAlertDate:        {instant, func(r model.StockRecord) string { return r.AlertDate }},
	ColAddedDate:        {instant, func(r model.StockRecord) string { return r.AddedDate }},
	ColExitedDate:       {instant, func(r model.StockRecord) string { return r.ExitedDate }},
	ColExitNotes:        {lexical, func(r model.StockRecord) string { return r.ExitNotes }},
	ColSuggestedBy:      {lexical, func(r model.StockRecord) string { return r.SuggestedBy }},
	ColSheet:            {lexical, func(r model.StockRecord) string { return r.Sheet }},
}

// Sort is a column plus direction.
type Sort struct {
	Column string
	Desc   bool
}

// DefaultSort shows the newest additions first.
var DefaultSort = Sort{Column: ColAddedDate, Desc: true}

// ParseSort validates a column name and a direction ("asc" or "desc", default desc).
func ParseSort(col, dir string) (Sort, error) {
	col = strings.TrimSpace(col)
	if col == "" {
		return DefaultSort, nil
	}
	if _, ok := columns[col]; !ok {
		return Sort{}, fmt.Errorf("unknown sort column %q", col)
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "desc":
		return Sort{Column: col, Desc: true}, nil
	case "asc":
		return Sort{Column: col}, nil
	}
	return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
}

// compare orders a before b (negative), after (positive) or as equal (zero)
// under s, ignoring direction.
func (s Sort) compare(a, b model.StockRecord) int {
	c, ok := columns[s.Column]
	if !ok {
		return 0
	}
	va, vb := c.value(a), c.value(b)
	switch c.kind {
	case numeric:
		fa, fb := calculator.Float(va), calculator.Float(vb)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case instant:
		ta, _ := parseInstant(va)
		tb, _ := parseInstant(vb)
		return ta.Compare(tb)
	}
	return strings.Compare(strings.ToLower(va), strings.ToLower(vb))
}

// Order sorts records in place, stably.
func Order(records []model.StockRecord, s Sort) {
	slices.SortStableFunc(records, func(a, b model.StockRecord) int {
		c := s.compare(a, b)
		if s.Desc {
			return -c
		}
		return c
	})
}

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseInstant reads the date formats that reach the store; missing or
// unparsable values are the zero instant.
func parseInstant(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
