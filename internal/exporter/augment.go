package exporter

import (
	"fmt"

	"gradecli/internal/dataprocessing"
	"gradecli/internal/moderation"
)

// AugmentedTable is the cleaned table with the moderated columns appended,
// ready for CSV or XLSX serialization. Pre-existing columns are never
// removed or reordered.
type AugmentedTable struct {
	Headers []string
	Records [][]string
}

// Augment appends the three curved columns for the moderated assessment:
// curved raw score (2 decimals), curved percentage (1 decimal), and the new
// grade label. Rows without an original score get blank cells.
func Augment(clean *dataprocessing.CleanResult, result *moderation.Result) *AugmentedTable {
	headers := make([]string, 0, len(clean.Table.Columns)+3)
	headers = append(headers, clean.Table.Columns...)
	headers = append(headers,
		fmt.Sprintf("%s (Curved Raw)", result.Column),
		fmt.Sprintf("%s (Curved %%)", result.Column),
		fmt.Sprintf("%s (New Grade)", result.Column),
	)

	// Index records by cleaned-table row for alignment
	byRow := make(map[int]*moderation.GradeRecord, len(result.Records))
	for i := range result.Records {
		byRow[result.Records[i].RowIndex] = &result.Records[i]
	}

	records := make([][]string, 0, len(clean.Table.Rows))
	for i, row := range clean.Table.Rows {
		cells := make([]string, 0, len(headers))
		for _, col := range clean.Table.Columns {
			cells = append(cells, row[col])
		}

		if rec, ok := byRow[i]; ok {
			cells = append(cells,
				fmt.Sprintf("%.2f", rec.RawAdjusted),
				fmt.Sprintf("%.1f", rec.PctAdjusted),
				string(rec.CategoryAdjusted),
			)
		} else {
			cells = append(cells, "", "", "")
		}

		records = append(records, cells)
	}

	return &AugmentedTable{Headers: headers, Records: records}
}
