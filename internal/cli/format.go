package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"StockTracker/internal/calculator"
	"StockTracker/internal/model"
)

// formatPrice renders a stored price string as USD, or "-" when it is not a number.
func formatPrice(s string) string {
	d, ok := calculator.ParsePrice(s)
	if !ok {
		return "-"
	}
	cur := money.GetCurrency(money.USD)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	return money.New(d.Mul(factor).Round(0).IntPart(), money.USD).Display()
}

func formatPercent(s string) string {
	if s == "" {
		return "-"
	}
	return s + "%"
}

func writeTable(w io.Writer, recs []model.StockRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tTYPE\tSTATUS\tENTRY\tCURRENT\tTARGET\tEXIT\tRETURN\tSUGGESTED BY\tADDED")
	for _, r := range recs {
		ret := r.ReturnSinceEntry
		if r.IsClosed() {
			ret = r.ReturnPercent
		}
		added := r.AddedDate
		if len(added) >= 10 {
			added = added[:10]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Ticker, r.Type, r.Status,
			formatPrice(r.Entry), formatPrice(r.CurrentPrice), formatPrice(r.PriceTarget), formatPrice(r.ExitValue),
			formatPercent(ret), r.SuggestedBy, added)
	}
	return tw.Flush()
}
