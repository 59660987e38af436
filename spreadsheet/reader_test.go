package spreadsheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &rows[i]))
	}

	path := filepath.Join(t.TempDir(), "paper.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExcelReaderTypedCells(t *testing.T) {
	path := writeWorkbook(t, "rawdata", [][]interface{}{
		{"dose", "effect", "ratio", "flag", "code"},
		{10, "high", 20.5, true, "007"},
		{20, "low", 0.25, false, "42x"},
	})

	grid, err := NewReader().Read(path, "rawdata")
	require.NoError(t, err)
	require.Len(t, grid, 3)

	assert.Equal(t, []interface{}{"dose", "effect", "ratio", "flag", "code"}, grid[0])
	assert.Equal(t, []interface{}{int64(10), "high", 20.5, true, "007"}, grid[1])
	assert.Equal(t, []interface{}{int64(20), "low", 0.25, false, "42x"}, grid[2])
}

func TestExcelReaderBlankCells(t *testing.T) {
	path := writeWorkbook(t, "rawdata", [][]interface{}{
		{1, "b", "c"},
		{"x", nil, "z"},
		{"only"},
	})

	grid, err := NewReader().Read(path, "rawdata")
	require.NoError(t, err)
	require.Len(t, grid, 3)

	assert.Equal(t, int64(1), grid[0][0], "numeric header cells stay numeric")
	assert.Equal(t, []interface{}{"x", nil, "z"}, grid[1])
	assert.Equal(t, []interface{}{"only"}, grid[2])
}

func TestExcelReaderSheetSelection(t *testing.T) {
	path := writeWorkbook(t, "variants", [][]interface{}{{"k"}, {"v"}})

	_, err := NewReader().Read(path, "rawdata")
	assert.ErrorIs(t, err, ErrSheetNotFound)

	grid, err := NewReader().Read(path, "rawdata", WithSheet("variants"))
	require.NoError(t, err)
	assert.Len(t, grid, 2)
}

func TestExcelReaderMissingFile(t *testing.T) {
	_, err := NewReader().Read(filepath.Join(t.TempDir(), "nope.xlsx"), "rawdata")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSheetNotFound)
}

func TestCSVReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper.csv")
	require.NoError(t, os.WriteFile(path, []byte("dose;effect\n10;high\n20\n"), 0644))

	grid, err := NewReader().Read(path, "ignored", WithComma(';'))
	require.NoError(t, err)

	assert.Equal(t, Grid{
		{"dose", "effect"},
		{"10", "high"},
		{"20"},
	}, grid)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := NewReader().Read("paper.ods", "rawdata")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw    string
		expect interface{}
	}{
		{"10", int64(10)},
		{"-3", int64(-3)},
		{"2.5", 2.5},
		{"1E+20", 1e20},
		{"2024-01-02T00:00:00Z", "2024-01-02T00:00:00Z"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expect, parseNumber(tc.raw), tc.raw)
	}
}

func TestExcelReaderEncryptedWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "rawdata"))
	require.NoError(t, f.SetSheetRow("rawdata", "A1", &[]interface{}{"dose"}))
	require.NoError(t, f.SetSheetRow("rawdata", "A2", &[]interface{}{10}))

	path := filepath.Join(t.TempDir(), "locked.xlsx")
	require.NoError(t, f.SaveAs(path, excelize.Options{Password: "s3cret"}))

	_, err := NewReader().Read(path, "rawdata")
	require.Error(t, err)

	grid, err := NewReader().Read(path, "rawdata", WithPassword("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, Grid{{"dose"}, {int64(10)}}, grid)
}
