package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ReturnPercent computes ((exit - entry) / entry) * 100 rounded to two decimals.
// It returns "" when the result is not computable: entry missing, unparsable or
// non-positive, or exit missing or unparsable. Callers must not read "" as zero.
func ReturnPercent(entry, exit string) string {
	e, ok := ParsePrice(entry)
	if !ok || !e.IsPositive() {
		return ""
	}
	x, ok := ParsePrice(exit)
	if !ok {
		return ""
	}
	return x.Sub(e).Mul(hundred).Div(e).StringFixed(2)
}

// ReturnSinceEntry is the unrealized return of an open position at its current price.
func ReturnSinceEntry(entry, current string) string {
	return ReturnPercent(entry, current)
}

// FractionToPercent converts a spreadsheet percentage cell to the canonical unit.
// A plain number is a fraction (0.2 -> "20.00"); a value ending in % is already a
// percentage ("20%" -> "20.00"). Anything unparsable is returned trimmed.
func FractionToPercent(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if pct, ok := strings.CutSuffix(s, "%"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return s
		}
		return d.StringFixed(2)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.Mul(hundred).StringFixed(2)
}
