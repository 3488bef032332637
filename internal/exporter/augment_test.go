package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradecli/internal/dataprocessing"
	"gradecli/internal/moderation"
)

func sampleClean() *dataprocessing.CleanResult {
	return &dataprocessing.CleanResult{
		Table: dataprocessing.RawTable{
			Columns: []string{"Student", "ID", "Final Score"},
			Rows: []dataprocessing.Row{
				{"Student": "Doe, Jane", "ID": "1001", "Final Score": "32"},
				{"Student": "Roe, Richard", "ID": "1002", "Final Score": ""},
				{"Student": "Poe, Edgar", "ID": "1003", "Final Score": "36"},
			},
		},
	}
}

func sampleResult() *moderation.Result {
	return &moderation.Result{
		Column: "Final Score",
		Records: []moderation.GradeRecord{
			{RowIndex: 0, RawAdjusted: 33.456, PctAdjusted: 83.64, CategoryAdjusted: moderation.BandHD},
			{RowIndex: 2, RawAdjusted: 37.2, PctAdjusted: 93.0, CategoryAdjusted: moderation.BandHD},
		},
	}
}

func TestAugment(t *testing.T) {
	table := Augment(sampleClean(), sampleResult())

	// Original columns stay, three curved columns append
	assert.Equal(t, []string{
		"Student", "ID", "Final Score",
		"Final Score (Curved Raw)",
		"Final Score (Curved %)",
		"Final Score (New Grade)",
	}, table.Headers)

	require.Len(t, table.Records, 3)
	assert.Equal(t, []string{"Doe, Jane", "1001", "32", "33.46", "83.6", "HD"}, table.Records[0])
	assert.Equal(t, []string{"Poe, Edgar", "1003", "36", "37.20", "93.0", "HD"}, table.Records[2])

	// Rows without a score keep their cells and get blanks for the new columns
	assert.Equal(t, []string{"Roe, Richard", "1002", "", "", "", ""}, table.Records[1])
}
