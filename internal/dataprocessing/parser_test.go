package dataprocessing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gradecli/internal/errors"
)

func TestParseTableCSV(t *testing.T) {
	input := "Student,ID,Final Score\n\"Doe, Jane\",1001,32\n\"Roe, Richard\",1002,28\n"

	got, err := ParseTable(strings.NewReader(input), "grades.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Student", "ID", "Final Score"}, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Doe, Jane", got.Rows[0]["Student"])
	assert.Equal(t, "28", got.Rows[1]["Final Score"])
}

func TestParseTableCSVWithBOM(t *testing.T) {
	input := "\xEF\xBB\xBFStudent,Score\nDoe,50\n"

	got, err := ParseTable(strings.NewReader(input), "grades.csv")
	require.NoError(t, err)

	// The BOM must not leak into the first column name
	assert.Equal(t, []string{"Student", "Score"}, got.Columns)
}

func TestParseTableRaggedRows(t *testing.T) {
	input := "Student,ID,Score\nDoe,1001\nRoe,1002,70,extra\n"

	got, err := ParseTable(strings.NewReader(input), "grades.csv")
	require.NoError(t, err)

	require.Len(t, got.Rows, 2)
	// Short rows pad with empty cells, long rows drop the excess
	assert.Equal(t, "", got.Rows[0]["Score"])
	assert.Equal(t, "70", got.Rows[1]["Score"])
}

func TestParseTableEmpty(t *testing.T) {
	_, err := ParseTable(strings.NewReader(""), "grades.csv")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
}

func TestParseTableBlankHeader(t *testing.T) {
	_, err := ParseTable(strings.NewReader(",,\nA,B,C\n"), "grades.csv")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
}

func TestParseTableXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Student", "ID", "Total"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Doe, Jane", "1001", 88}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Roe, Richard", "1002", 74}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, err := ParseTable(&buf, "grades.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"Student", "ID", "Total"}, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "88", got.Rows[0]["Total"])
}

func TestParseTableXLSXGarbage(t *testing.T) {
	_, err := ParseTable(strings.NewReader("this is not a zip archive"), "grades.xlsx")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
}
