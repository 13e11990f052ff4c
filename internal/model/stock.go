package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record types and statuses.
const (
	TypeStock  = "Stock"
	TypeOption = "Option"

	StatusOpen   = "Open"
	StatusClosed = "Closed"

	// ManualSheet is the provenance of records added through the form or CLI.
	ManualSheet = "Manual Entry"
)

// StockRecord is one tracked position. Absent values are empty strings, never null.
type StockRecord struct {
	Ticker           string `json:"ticker"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	Entry            string `json:"entry"`
	CurrentPrice     string `json:"currentPrice"`
	PriceTarget      string `json:"priceTarget"`
	ExitValue        string `json:"exitValue"`
	ReturnPercent    string `json:"returnPercent"`
	ReturnSinceEntry string `json:"returnSinceEntry"`
	AlertDate        string `json:"alertDate"`
	AddedDate        string `json:"addedDate"`
	ExitedDate       string `json:"exitedDate"`
	ExitNotes        string `json:"exitNotes"`
	SuggestedBy      string `json:"suggestedBy"`
	Sheet            string `json:"sheet"`
}

// IsOption reports whether the record tracks an option contract.
func (r StockRecord) IsOption() bool { return strings.EqualFold(r.Type, TypeOption) }

// IsClosed reports whether an exit has been recorded.
func (r StockRecord) IsClosed() bool { return strings.EqualFold(r.Status, StatusClosed) }

// CanonicalTicker trims and uppercases a ticker.
func CanonicalTicker(t string) string { return strings.ToUpper(strings.TrimSpace(t)) }

// CanonicalType maps case variants of the known types to their canonical spelling.
// Unknown values are returned trimmed; empty becomes Stock.
func CanonicalType(t string) string {
	t = strings.TrimSpace(t)
	switch {
	case t == "":
		return TypeStock
	case strings.EqualFold(t, TypeStock):
		return TypeStock
	case strings.EqualFold(t, TypeOption):
		return TypeOption
	}
	return t
}

// CanonicalStatus maps case variants of Open/Closed; empty becomes Open.
func CanonicalStatus(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return StatusOpen
	case strings.EqualFold(s, StatusOpen):
		return StatusOpen
	case strings.EqualFold(s, StatusClosed):
		return StatusClosed
	}
	return s
}

// StockPatch is a partial update. A nil field is absent.
type StockPatch struct {
	Name          *FlexString `json:"name,omitempty"`
	Type          *FlexString `json:"type,omitempty"`
	Status        *FlexString `json:"status,omitempty"`
	Entry         *FlexString `json:"entry,omitempty"`
	CurrentPrice  *FlexString `json:"currentPrice,omitempty"`
	PriceTarget   *FlexString `json:"priceTarget,omitempty"`
	ExitValue     *FlexString `json:"exitValue,omitempty"`
	ReturnPercent *FlexString `json:"returnPercent,omitempty"`
	AlertDate     *FlexString `json:"alertDate,omitempty"`
	ExitNotes     *FlexString `json:"exitNotes,omitempty"`
	SuggestedBy   *FlexString `json:"suggestedBy,omitempty"`
}

// FlexString decodes a JSON string, number or null into a string.
// Form fields arrive as strings, spreadsheet-ish clients send numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
	default:
		return fmt.Errorf("expected string or number, got %s", b)
	}
	return nil
}

// String returns the trimmed value.
func (f FlexString) String() string { return strings.TrimSpace(string(f)) }

// Str wraps a string into a patch field.
func Str(s string) *FlexString {
	f := FlexString(s)
	return &f
}

// StockInput is a manual add: a ticker plus the optional fields of a patch.
type StockInput struct {
	Ticker FlexString `json:"ticker"`
	StockPatch
}
