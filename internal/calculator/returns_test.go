package calculator

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestReturnPercent(t *testing.T) {
	cases := []struct {
		entry, exit, want string
	}{
		{"150", "180", "20.00"},
		{"200", "190", "-5.00"},
		{"3", "4", "33.33"},
		{"3", "2", "-33.33"},
		{"$1,000", "1500", "50.00"},
		{"100", "100", "0.00"},
		{"", "180", ""},
		{"0", "180", ""},
		{"-5", "180", ""},
		{"abc", "180", ""},
		{"150", "", ""},
		{"150", "n/a", ""},
	}
	for _, c := range cases {
		if got := ReturnPercent(c.entry, c.exit); got != c.want {
			t.Errorf("ReturnPercent(%q, %q) = %q, want %q", c.entry, c.exit, got, c.want)
		}
	}
}

func TestFractionToPercent(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"0.2":     "20.00",
		"-0.0525": "-5.25",
		"20%":     "20.00",
		" 7.5 % ": "7.50",
		"n/a":     "n/a",
	}
	for in, want := range cases {
		if got := FractionToPercent(in); got != want {
			t.Errorf("FractionToPercent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFloat(t *testing.T) {
	if got := Float("$1,250.50"); got != 1250.5 {
		t.Errorf("Float = %v", got)
	}
	if got := Float(""); got != 0 {
		t.Errorf("Float(empty) = %v", got)
	}
	if got := Float("soon"); got != 0 {
		t.Errorf("Float(text) = %v", got)
	}
}

func priceGen(min, max int64) gopter.Gen {
	return gen.Int64Range(min, max).Map(func(cents int64) string {
		return decimal.New(cents, -2).String()
	})
}

func TestProperty_ReturnPercentExactAndSigned(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("two decimals, within half a cent of the exact value, sign follows exit >= entry", prop.ForAll(
		func(entry, exit string) bool {
			got := ReturnPercent(entry, exit)
			dot := strings.IndexByte(got, '.')
			if dot < 0 || len(got)-dot-1 != 2 {
				return false
			}
			g := decimal.RequireFromString(got)
			e := decimal.RequireFromString(entry)
			x := decimal.RequireFromString(exit)
			exact := x.Sub(e).Mul(hundred).DivRound(e, 12)
			if g.Sub(exact).Abs().GreaterThan(decimal.RequireFromString("0.005")) {
				return false
			}
			if x.GreaterThanOrEqual(e) {
				return !g.IsNegative()
			}
			return !g.IsPositive()
		},
		priceGen(1, 10_000_00),
		priceGen(0, 20_000_00),
	))

	properties.Property("undefined when entry is not positive", prop.ForAll(
		func(entry, exit string) bool {
			return ReturnPercent(entry, exit) == ""
		},
		priceGen(-10_000_00, 0),
		priceGen(0, 20_000_00),
	))

	properties.TestingRun(t)
}
