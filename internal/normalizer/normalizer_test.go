package normalizer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"StockTracker/internal/apperr"
	"StockTracker/internal/model"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeRow_AliasesAndDefaults(t *testing.T) {
	row := Row{
		"Symbol":        " nvda ",
		"Entry (Alert)": "",
		"Entry":         "450.5",
		"PT":            "600",
		"Return":        "0.125",
		"% Change":      "12%",
		"Author":        "Dana",
		"Alert Date":    "45306",
	}
	rec, ok := NormalizeRow(row, "Tech", fixedNow)
	if !ok {
		t.Fatal("expected row to be accepted")
	}
	if rec.Ticker != "NVDA" {
		t.Errorf("Ticker = %q", rec.Ticker)
	}
	if rec.Entry != "450.5" {
		t.Errorf("Entry = %q, expected fallback to second alias", rec.Entry)
	}
	if rec.Type != model.TypeStock || rec.Status != model.StatusOpen {
		t.Errorf("defaults: type=%q status=%q", rec.Type, rec.Status)
	}
	if rec.ReturnPercent != "12.50" {
		t.Errorf("ReturnPercent = %q, want fraction converted to 12.50", rec.ReturnPercent)
	}
	if rec.ReturnSinceEntry != "12.00" {
		t.Errorf("ReturnSinceEntry = %q", rec.ReturnSinceEntry)
	}
	if rec.AlertDate != "1/15/2024" {
		t.Errorf("AlertDate = %q", rec.AlertDate)
	}
	if rec.AddedDate != "2024-03-01T12:00:00Z" {
		t.Errorf("AddedDate = %q", rec.AddedDate)
	}
	if rec.Sheet != "Tech" || rec.SuggestedBy != "Dana" || rec.PriceTarget != "600" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.CurrentPrice != "" || rec.ExitNotes != "" || rec.ExitValue != "" {
		t.Errorf("unseen fields must be empty: %+v", rec)
	}
}

func TestNormalizeRow_SkipsBlankTicker(t *testing.T) {
	if _, ok := NormalizeRow(Row{"Ticker": "   ", "Entry": "10"}, "S", fixedNow); ok {
		t.Error("expected blank ticker row to be skipped")
	}
	if _, ok := NormalizeRow(Row{}, "S", fixedNow); ok {
		t.Error("expected empty row to be skipped")
	}
}

func TestNormalizeRow_CanonicalizesTypeAndStatus(t *testing.T) {
	rec, _ := NormalizeRow(Row{"ticker": "spy", "type": "option", "status": "CLOSED"}, "S", fixedNow)
	if rec.Type != model.TypeOption || rec.Status != model.StatusClosed {
		t.Errorf("type=%q status=%q", rec.Type, rec.Status)
	}
}

func TestAlertDate(t *testing.T) {
	cases := map[string]string{
		"45306":      "1/15/2024",
		"25569":      "1/1/1970",
		"Jan 5 2024": "Jan 5 2024",
		"":           "",
		"2024-01-15": "2024-01-15",
	}
	for in, want := range cases {
		if got := AlertDate(in); got != want {
			t.Errorf("AlertDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDedupe_LastWins(t *testing.T) {
	in := []model.StockRecord{
		{Ticker: "AAPL", Entry: "100"},
		{Ticker: "TSLA", Entry: "200"},
		{Ticker: "aapl", Entry: "150"},
	}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Ticker != "TSLA" || out[1].Entry != "150" {
		t.Errorf("unexpected order/values: %+v", out)
	}
}

func TestReadWorkbook_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Ticker", "Entry", "Current Price", "Alert Date"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]interface{}{"AAPL", 150, 160, 45306}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Sheet1", "A4", &[]interface{}{"TSLA", 200, 190}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Options"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Options", "A1", &[]interface{}{"Symbol", "Type"}); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("Options", "A2", &[]interface{}{"SPY 500C", "Option"}); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	sheets, err := ReadWorkbook(buf, "stocks.xlsx")
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(sheets))
	}
	if len(sheets[0].Rows) != 2 {
		t.Fatalf("expected blank row 3 to be dropped, got %d rows", len(sheets[0].Rows))
	}

	recs := Normalize(sheets, fixedNow)
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Ticker != "AAPL" || recs[0].Entry != "150" || recs[0].CurrentPrice != "160" || recs[0].AlertDate != "1/15/2024" {
		t.Errorf("unexpected AAPL record: %+v", recs[0])
	}
	if recs[2].Sheet != "Options" || !recs[2].IsOption() {
		t.Errorf("unexpected option record: %+v", recs[2])
	}
}

func TestReadWorkbook_CSV(t *testing.T) {
	data := "\ufeffTicker,Entry,Current Price,Return %\nAAPL,150,160,\n,,,\nTSLA,200,190,5%\n"
	sheets, err := ReadWorkbook(strings.NewReader(data), "upload.CSV")
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	recs := Normalize(sheets, fixedNow)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Sheet != CSVSheetName {
		t.Errorf("Sheet = %q", recs[0].Sheet)
	}
	if recs[1].ReturnPercent != "5.00" {
		t.Errorf("ReturnPercent = %q", recs[1].ReturnPercent)
	}
}

func TestReadWorkbook_CorruptFails(t *testing.T) {
	_, err := ReadWorkbook(bytes.NewReader([]byte("definitely not a zip")), "stocks.xlsx")
	if err == nil {
		t.Fatal("expected error for corrupt workbook")
	}
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("expected upstream error kind, got %v", err)
	}
	if _, err := ReadWorkbook(strings.NewReader("x"), "old.xls"); err == nil {
		t.Error("expected .xls to be rejected")
	}
}
