package insights

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantCols []string
		wantRows int
		wantErr  bool
	}{
		{
			name:     "simple table",
			input:    "Product,Revenue\nWidget,100\nGadget,200\n",
			wantCols: []string{"Product", "Revenue"},
			wantRows: 2,
		},
		{
			name:     "short rows padded and empty rows dropped",
			input:    "Product,Revenue,Cost\nWidget,100\n,,\nGadget,200,50\n",
			wantCols: []string{"Product", "Revenue", "Cost"},
			wantRows: 2,
		},
		{
			name:     "cells trimmed",
			input:    " Product , Revenue \n Widget , 100 \n",
			wantCols: []string{"Product", "Revenue"},
			wantRows: 1,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "header only",
			input:   "Product,Revenue\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			frame, err := LoadCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCols, frame.Columns)
			assert.Len(t, frame.Rows, tt.wantRows)
			for _, row := range frame.Rows {
				assert.Len(t, row, len(frame.Columns))
			}
		})
	}
}

func buildWorkbook(t *testing.T, records [][]string) []byte {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, record := range records {
		row := sheet.AddRow()
		for _, cell := range record {
			row.AddCell().SetString(cell)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestLoadXLSX(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, [][]string{
		{"Product", "Revenue"},
		{"Widget", "100"},
		{"Gadget", "200"},
	})

	frame, err := LoadXLSX(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Product", "Revenue"}, frame.Columns)
	require.Len(t, frame.Rows, 2)
	assert.Equal(t, []string{"Widget", "100"}, frame.Rows[0])
}

func TestLoadXLSXInvalid(t *testing.T) {
	t.Parallel()

	_, err := LoadXLSX([]byte("not a workbook"))
	assert.Error(t, err)
}

func TestLoadUploadDispatch(t *testing.T) {
	t.Parallel()

	records := [][]string{
		{"Product", "Revenue"},
		{"Widget", "100"},
	}

	fromXLSX, err := LoadUpload("kpis.XLSX", buildWorkbook(t, records))
	require.NoError(t, err)

	fromCSV, err := LoadUpload("kpis.csv", []byte("Product,Revenue\nWidget,100\n"))
	require.NoError(t, err)

	assert.Equal(t, fromCSV.Columns, fromXLSX.Columns)
	assert.Equal(t, fromCSV.Rows, fromXLSX.Rows)
}

func TestFrameColumn(t *testing.T) {
	t.Parallel()

	frame := &Frame{
		Columns: []string{"Product", "Revenue"},
		Rows:    [][]string{{"Widget", "100"}, {"Gadget", "200"}},
	}

	assert.Equal(t, []string{"100", "200"}, frame.Column("Revenue"))
	assert.Nil(t, frame.Column("Missing"))
}
