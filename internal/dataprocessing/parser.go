package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gradecli/internal/errors"
)

// utf8BOM is the byte order mark some exporters prepend to CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseTable reads an uploaded gradebook into a RawTable. The format is
// chosen from the filename extension: .xlsx goes through excelize, anything
// else is treated as CSV.
func ParseTable(r io.Reader, filename string) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return parseXLSX(r, filename)
	default:
		return parseCSV(r)
	}
}

// parseCSV reads a CSV stream into a RawTable. The first row is the header.
func parseCSV(r io.Reader) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewParsingError("failed to read upload", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // exporter rows are often ragged
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("failed to parse CSV", err)
	}

	return tableFromRows(rows)
}

// parseXLSX reads the first sheet of an Excel workbook into a RawTable.
func parseXLSX(r io.Reader, filename string) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError("workbook contains no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError("failed to read sheet rows", err)
	}

	slog.Debug("parsed workbook",
		slog.String("file", filename),
		slog.String("sheet", sheets[0]),
		slog.Int("total_rows", len(rows)))

	return tableFromRows(rows)
}

// tableFromRows converts a positional row grid into a RawTable keyed by the
// header row. Short rows are padded with empty cells; extra cells beyond the
// header are dropped.
func tableFromRows(rows [][]string) (*RawTable, error) {
	if len(rows) == 0 {
		return nil, errors.NewParsingError("table is empty", nil)
	}

	header := rows[0]
	columns := make([]string, 0, len(header))
	for _, h := range header {
		columns = append(columns, strings.TrimSpace(h))
	}
	if len(columns) == 0 || allEmpty(columns) {
		return nil, errors.NewParsingError("table has no header row", nil)
	}

	table := &RawTable{Columns: columns}
	for _, raw := range rows[1:] {
		row := make(Row, len(columns))
		for j, col := range columns {
			if j < len(raw) {
				row[col] = strings.TrimSpace(raw[j])
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
