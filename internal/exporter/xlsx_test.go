package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXWriterWriteTable(t *testing.T) {
	table := &AugmentedTable{
		Headers: []string{"Student", "Score", "Score (New Grade)"},
		Records: [][]string{
			{"Doe, Jane", "72", "DI"},
			{"Roe, Richard", "55", "PA"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewXLSXWriter(nil).WriteTable(&buf, table))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	// Single sheet with the fixed name, default sheet dropped
	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, table.Headers, rows[0])
	assert.Equal(t, []string{"Doe, Jane", "72", "DI"}, rows[1])
	assert.Equal(t, []string{"Roe, Richard", "55", "PA"}, rows[2])
}
