package dataprocessing

import (
	"log/slog"
	"strconv"
	"strings"

	"gradecli/internal/errors"
)

const (
	// metadataSentinel marks the exporter-inserted row carrying per-column
	// maximum-points values. Matched as a case-sensitive substring of the
	// first column's cell.
	metadataSentinel = "Points Possible"

	// metadataScanRows bounds how deep the sentinel scan goes
	metadataScanRows = 5
)

// identifierColumns are the conventional name/ID columns. They are never
// coerced to numeric and never moderated.
var identifierColumns = map[string]bool{
	"Student":      true,
	"ID":           true,
	"SIS User ID":  true,
	"SIS Login ID": true,
	"Section":      true,
}

// syntheticMarkers identify placeholder students inserted by the exporter,
// in both "first last" and "last, first" orderings. Matched case-insensitively
// as substrings of the identifier column.
var syntheticMarkers = []string{
	"test student",
	"student, test",
}

// Cleaner strips exporter metadata, removes synthetic rows, and coerces
// candidate columns to numeric.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a table cleaner
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// Clean produces a cleaned table plus column metadata from a raw upload.
// Returns a NO_SCORED_COLUMNS error if no column coerces to numeric for at
// least one row.
func (c *Cleaner) Clean(table *RawTable) (*CleanResult, error) {
	meta, rows := c.stripMetadataRow(table)
	rows = c.dropSyntheticRows(table.Columns, rows)

	result := &CleanResult{
		Table: RawTable{Columns: table.Columns, Rows: rows},
		Meta:  meta,
	}

	result.Numeric = make(map[string][]*float64)
	for _, col := range table.Columns {
		if identifierColumns[col] {
			continue
		}
		values, any := coerceColumn(rows, col)
		if any {
			result.Numeric[col] = values
			result.Candidates = append(result.Candidates, col)
		}
	}

	if len(result.Candidates) == 0 {
		return nil, errors.NewNoScoredColumnsError()
	}

	c.logger.Debug("cleaned table",
		slog.Int("rows", len(rows)),
		slog.Int("candidates", len(result.Candidates)),
		slog.Int("known_maxima", len(meta)))

	return result, nil
}

// stripMetadataRow scans the first rows for the sentinel. If found at index
// k, rows 0..k inclusive are discarded and the sentinel row's other cells are
// parsed as per-column maxima. Unparsable cells map to "no maximum known".
func (c *Cleaner) stripMetadataRow(table *RawTable) (ColumnMeta, []Row) {
	meta := ColumnMeta{}
	if len(table.Columns) == 0 {
		return meta, table.Rows
	}
	first := table.Columns[0]

	limit := metadataScanRows
	if len(table.Rows) < limit {
		limit = len(table.Rows)
	}

	for k := 0; k < limit; k++ {
		if !strings.Contains(table.Rows[k][first], metadataSentinel) {
			continue
		}
		for _, col := range table.Columns[1:] {
			if v, ok := parseNumber(table.Rows[k][col]); ok {
				meta[col] = v
			}
		}
		c.logger.Debug("metadata row stripped",
			slog.Int("row_index", k),
			slog.Int("maxima", len(meta)))
		return meta, table.Rows[k+1:]
	}

	return meta, table.Rows
}

// dropSyntheticRows removes rows whose identifier column matches the
// synthetic-student denylist.
func (c *Cleaner) dropSyntheticRows(columns []string, rows []Row) []Row {
	idCol := identifierColumn(columns)
	if idCol == "" {
		return rows
	}

	kept := make([]Row, 0, len(rows))
	for _, row := range rows {
		if isSynthetic(row[idCol]) {
			c.logger.Debug("synthetic row removed", slog.String("identifier", row[idCol]))
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

// identifierColumn returns the first recognized identifier column, falling
// back to the first column.
func identifierColumn(columns []string) string {
	for _, col := range columns {
		if identifierColumns[col] {
			return col
		}
	}
	if len(columns) > 0 {
		return columns[0]
	}
	return ""
}

func isSynthetic(identifier string) bool {
	lower := strings.ToLower(identifier)
	for _, marker := range syntheticMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// coerceColumn parses every cell of the column as a float. Failures become
// missing values. Reports whether at least one cell coerced.
func coerceColumn(rows []Row, col string) ([]*float64, bool) {
	values := make([]*float64, len(rows))
	any := false
	for i, row := range rows {
		if v, ok := parseNumber(row[col]); ok {
			val := v
			values[i] = &val
			any = true
		}
	}
	return values, any
}

// parseNumber parses a cell as a float, tolerating thousands separators and
// surrounding whitespace.
func parseNumber(cell string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
