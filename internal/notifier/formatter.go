package notifier

import (
	"fmt"
	"html"
	"strings"

	"StockTracker/internal/model"
)

// maxListed caps list replies so they stay under the Telegram message limit.
const maxListed = 25

// FormatExit announces a closed position.
func FormatExit(rec model.StockRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏁 <b>Exit %s</b>\n\n", html.EscapeString(rec.Ticker)))
	b.WriteString(fmt.Sprintf("Entry: %s\n", orDash(rec.Entry)))
	b.WriteString(fmt.Sprintf("Exit: %s\n", orDash(rec.ExitValue)))
	if rec.ReturnPercent != "" {
		b.WriteString(fmt.Sprintf("Return: %s%%\n", html.EscapeString(rec.ReturnPercent)))
	}
	if rec.ExitNotes != "" {
		b.WriteString(fmt.Sprintf("Notes: %s\n", html.EscapeString(rec.ExitNotes)))
	}
	return b.String()
}

// FormatUpload announces a spreadsheet import.
func FormatUpload(filename string, total int) string {
	return fmt.Sprintf("📥 <b>Upload</b> %s\n%d stocks loaded", html.EscapeString(filename), total)
}

// FormatStock renders one record in detail.
func FormatStock(rec model.StockRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>", html.EscapeString(rec.Ticker)))
	if rec.Name != "" {
		b.WriteString(" " + html.EscapeString(rec.Name))
	}
	b.WriteString(fmt.Sprintf("\n%s | %s\n\n", orDash(rec.Type), orDash(rec.Status)))
	b.WriteString(fmt.Sprintf("Entry: %s\n", orDash(rec.Entry)))
	b.WriteString(fmt.Sprintf("Current: %s\n", orDash(rec.CurrentPrice)))
	b.WriteString(fmt.Sprintf("Target: %s\n", orDash(rec.PriceTarget)))
	if rec.ReturnSinceEntry != "" {
		b.WriteString(fmt.Sprintf("Since entry: %s%%\n", html.EscapeString(rec.ReturnSinceEntry)))
	}
	if rec.IsClosed() {
		b.WriteString(fmt.Sprintf("Exit: %s (%s%%)\n", orDash(rec.ExitValue), orDash(rec.ReturnPercent)))
	}
	if rec.SuggestedBy != "" {
		b.WriteString(fmt.Sprintf("Suggested by: %s\n", html.EscapeString(rec.SuggestedBy)))
	}
	if rec.AlertDate != "" {
		b.WriteString(fmt.Sprintf("Alert date: %s\n", html.EscapeString(rec.AlertDate)))
	}
	return b.String()
}

// FormatList renders a compact table of records.
func FormatList(title string, recs []model.StockRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b> (%d)\n\n", html.EscapeString(title), len(recs)))
	if len(recs) == 0 {
		b.WriteString("nothing here")
		return b.String()
	}
	for i, r := range recs {
		if i == maxListed {
			b.WriteString(fmt.Sprintf("… and %d more\n", len(recs)-maxListed))
			break
		}
		pct := r.ReturnSinceEntry
		if r.IsClosed() {
			pct = r.ReturnPercent
		}
		line := fmt.Sprintf("%s  %s", html.EscapeString(r.Ticker), orDash(r.Entry))
		if r.IsClosed() {
			line += " → " + orDash(r.ExitValue)
		} else if r.CurrentPrice != "" {
			line += " → " + html.EscapeString(r.CurrentPrice)
		}
		if pct != "" {
			line += fmt.Sprintf(" (%s%%)", html.EscapeString(pct))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return html.EscapeString(s)
}
