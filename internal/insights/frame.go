// Package insights implements the KPI analytics pipeline: tabular upload
// parsing, column detection, clustering, trends, forecasting, and
// rule-based alerts.
package insights

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Frame is a rectangular table of raw string cells. Every row has
// exactly len(Columns) cells.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// LoadUpload parses an uploaded KPI file by extension: .xlsx goes through
// the spreadsheet reader, everything else is treated as CSV.
func LoadUpload(filename string, data []byte) (*Frame, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return LoadXLSX(data)
	}
	return LoadCSV(strings.NewReader(string(data)))
}

// LoadCSV parses CSV data into a frame. The parser is lenient: variable
// field counts are padded, quoting is lazy, and fully empty rows are
// dropped.
func LoadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "insights: parse csv")
	}

	return buildFrame(records)
}

// LoadXLSX parses the first sheet of an XLSX workbook, first row as
// headers.
func LoadXLSX(data []byte) (*Frame, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "insights: parse xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("insights: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}

	return buildFrame(records)
}

// buildFrame turns raw records into a Frame: first row becomes headers,
// cells are trimmed, short rows padded, and empty rows removed.
func buildFrame(records [][]string) (*Frame, error) {
	if len(records) == 0 {
		return nil, eris.New("insights: uploaded file is empty")
	}

	columns := make([]string, len(records[0]))
	for i, name := range records[0] {
		columns[i] = strings.TrimSpace(name)
	}
	if len(columns) == 0 {
		return nil, eris.New("insights: uploaded file has no columns")
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]string, len(columns))
		empty := true
		for i := range columns {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
				if row[i] != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, eris.New("insights: uploaded file has no data rows")
	}

	return &Frame{Columns: columns, Rows: rows}, nil
}

// Column returns the raw values of the named column, or nil when the
// column does not exist.
func (f *Frame) Column(name string) []string {
	for i, col := range f.Columns {
		if col == name {
			values := make([]string, len(f.Rows))
			for j, row := range f.Rows {
				values[j] = row[i]
			}
			return values
		}
	}
	return nil
}
