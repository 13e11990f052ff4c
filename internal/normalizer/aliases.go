package normalizer

// Field is a canonical StockRecord field fed from spreadsheet columns.
type Field string

const (
	FieldTicker           Field = "ticker"
	FieldName             Field = "name"
	FieldType             Field = "type"
	FieldAlertDate        Field = "alertDate"
	FieldCurrentPrice     Field = "currentPrice"
	FieldEntry            Field = "entry"
	FieldReturnSinceEntry Field = "returnSinceEntry"
	FieldPriceTarget      Field = "priceTarget"
	FieldExitValue        Field = "exitValue"
	FieldExitNotes        Field = "exitNotes"
	FieldStatus           Field = "status"
	FieldReturnPercent    Field = "returnPercent"
	FieldSuggestedBy      Field = "suggestedBy"
)

// Aliases lists, per canonical field, the accepted column labels in probe order.
// The first label whose trimmed cell is non-empty wins.
var Aliases = []struct {
	Field  Field
	Labels []string
}{
	{FieldTicker, []string{"Ticker", "ticker", "Symbol", "symbol"}},
	{FieldName, []string{"Name", "Company", "Company Name"}},
	{FieldType, []string{"Type", "type"}},
	{FieldAlertDate, []string{"Alert Date", "Entry Date"}},
	{FieldCurrentPrice, []string{"Current Price", "current price"}},
	{FieldEntry, []string{"Entry (Alert)", "Entry", "entry"}},
	{FieldReturnSinceEntry, []string{"% since Entry", "% Change"}},
	{FieldPriceTarget, []string{"PT", "Price Target", "target"}},
	{FieldExitValue, []string{"Exit Value", "Exit Price", "Exit"}},
	{FieldExitNotes, []string{"Exit Notes", "exit notes"}},
	{FieldStatus, []string{"Status", "status"}},
	{FieldReturnPercent, []string{"Return %", "Return"}},
	{FieldSuggestedBy, []string{"Suggested By", "suggested by", "Author"}},
}
