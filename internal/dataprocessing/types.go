package dataprocessing

// Row is a single table row, mapping column name to the raw cell text.
type Row map[string]string

// RawTable is an ordered sequence of rows as read from the upload, before any
// cleaning. Column order is preserved from the source file.
type RawTable struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ColumnMeta maps a column name to its maximum-points value as declared by
// the exporter metadata row. Absent means no maximum is known for the column.
type ColumnMeta map[string]float64

// CleanResult is the output of the table cleaner: the cleaned table, the
// per-column maxima pulled from the metadata row, and the numeric view of
// every candidate scored column.
type CleanResult struct {
	Table RawTable   `json:"table"`
	Meta  ColumnMeta `json:"meta"`

	// Candidates lists the columns that coerced to numeric for at least one
	// row, in input column order.
	Candidates []string `json:"candidates"`

	// Numeric holds the coerced values per candidate column, aligned with
	// Table.Rows. A nil entry is a missing value.
	Numeric map[string][]*float64 `json:"-"`
}

// Scores returns the numeric view of a candidate column, aligned with the
// cleaned rows. Returns nil if the column is not a candidate.
func (c *CleanResult) Scores(column string) []*float64 {
	return c.Numeric[column]
}

// HasCandidate reports whether the column survived coercion
func (c *CleanResult) HasCandidate(column string) bool {
	_, ok := c.Numeric[column]
	return ok
}
