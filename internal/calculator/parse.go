package calculator

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice parses a stored price string. Leading currency symbols, thousands
// separators and a trailing percent sign are tolerated.
func ParsePrice(s string) (decimal.Decimal, bool) {
	s = cleanNumber(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Float parses s leniently for ordering purposes; anything unparsable is 0.
func Float(s string) float64 {
	v, err := strconv.ParseFloat(cleanNumber(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}
