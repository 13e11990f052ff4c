// Package normalizer maps heterogeneous spreadsheet rows onto the canonical StockRecord.
package normalizer

import (
	"strconv"
	"strings"
	"time"

	"StockTracker/internal/calculator"
	"StockTracker/internal/model"
)

// Row maps a column label to its raw cell text.
type Row map[string]string

// Sheet is one tab of a workbook. The name becomes the record provenance.
type Sheet struct {
	Name string
	Rows []Row
}

// Days between the spreadsheet epoch (1899-12-30) and the Unix epoch.
const serialUnixOffset = 25569

// AlertDateLayout renders converted spreadsheet dates.
const AlertDateLayout = "1/2/2006"

// resolve evaluates the alias table once for a row.
func resolve(row Row) map[Field]string {
	out := make(map[Field]string, len(Aliases))
	for _, a := range Aliases {
		for _, label := range a.Labels {
			if v := strings.TrimSpace(row[label]); v != "" {
				out[a.Field] = v
				break
			}
		}
	}
	return out
}

// NormalizeRow converts one row. ok is false for rows without a ticker,
// which are blank separators rather than errors.
func NormalizeRow(row Row, sheet string, now time.Time) (rec model.StockRecord, ok bool) {
	f := resolve(row)
	ticker := model.CanonicalTicker(f[FieldTicker])
	if ticker == "" {
		return rec, false
	}
	return model.StockRecord{
		Ticker:           ticker,
		Name:             f[FieldName],
		Type:             model.CanonicalType(f[FieldType]),
		Status:           model.CanonicalStatus(f[FieldStatus]),
		Entry:            f[FieldEntry],
		CurrentPrice:     f[FieldCurrentPrice],
		PriceTarget:      f[FieldPriceTarget],
		ExitValue:        f[FieldExitValue],
		ReturnPercent:    calculator.FractionToPercent(f[FieldReturnPercent]),
		ReturnSinceEntry: calculator.FractionToPercent(f[FieldReturnSinceEntry]),
		AlertDate:        AlertDate(f[FieldAlertDate]),
		AddedDate:        now.UTC().Format(time.RFC3339),
		ExitNotes:        f[FieldExitNotes],
		SuggestedBy:      f[FieldSuggestedBy],
		Sheet:            sheet,
	}, true
}

// AlertDate interprets a numeric value as a spreadsheet date serial and renders it
// as M/D/YYYY (UTC). Other values pass through unchanged.
func AlertDate(raw string) string {
	raw = strings.TrimSpace(raw)
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	secs := int64((serial - serialUnixOffset) * 86400)
	return time.Unix(secs, 0).UTC().Format(AlertDateLayout)
}

// Normalize converts every sheet in order. Duplicate tickers within the batch
// are collapsed, the last row winning.
func Normalize(sheets []Sheet, now time.Time) []model.StockRecord {
	var out []model.StockRecord
	for _, s := range sheets {
		for _, row := range s.Rows {
			if rec, ok := NormalizeRow(row, s.Name, now); ok {
				out = append(out, rec)
			}
		}
	}
	return Dedupe(out)
}

// Dedupe keeps the last record for each ticker at that record's position.
func Dedupe(records []model.StockRecord) []model.StockRecord {
	last := make(map[string]int, len(records))
	for i, r := range records {
		last[model.CanonicalTicker(r.Ticker)] = i
	}
	out := make([]model.StockRecord, 0, len(last))
	for i, r := range records {
		if last[model.CanonicalTicker(r.Ticker)] == i {
			out = append(out, r)
		}
	}
	return out
}
