package normalizer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"StockTracker/internal/apperr"
)

// CSVSheetName is the tab name given to the single sheet of a CSV upload.
const CSVSheetName = "Sheet1"

// ReadWorkbook reads every sheet of an uploaded workbook. The first row of each sheet
// is the header. Any structural failure rejects the whole workbook.
func ReadWorkbook(r io.Reader, filename string) ([]Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err := readCSV(r)
		if err != nil {
			return nil, apperr.Upstream("error parsing file", err)
		}
		return []Sheet{{Name: CSVSheetName, Rows: rows}}, nil
	case ".xls":
		return nil, apperr.Upstream("error parsing file", errors.New("legacy .xls workbooks are not supported, save as .xlsx or .csv"))
	}
	sheets, err := readXLSX(r)
	if err != nil {
		return nil, apperr.Upstream("error parsing file", err)
	}
	return sheets, nil
}

func readXLSX(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		// Raw values keep date cells as serial numbers for AlertDate.
		grid, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: toRows(grid)})
	}
	return sheets, nil
}

func readCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(grid) > 0 && len(grid[0]) > 0 {
		grid[0][0] = strings.TrimPrefix(grid[0][0], "\ufeff")
	}
	return toRows(grid), nil
}

// toRows turns a header + data grid into label-keyed rows. Fully blank rows are
// dropped; when a header label repeats, its first column is used.
func toRows(grid [][]string) []Row {
	if len(grid) == 0 {
		return nil
	}
	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}
	var rows []Row
	for _, cells := range grid[1:] {
		row := make(Row, len(header))
		blank := true
		for i, label := range header {
			if label == "" || i >= len(cells) {
				continue
			}
			if _, seen := row[label]; seen {
				continue
			}
			row[label] = cells[i]
			if strings.TrimSpace(cells[i]) != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows
}
