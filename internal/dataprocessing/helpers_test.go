package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// testSheet is one worksheet of a workbook built in a test.
type testSheet struct {
	name string
	rows [][]interface{}
}

// buildXLSX writes sheets into an in-memory xlsx file.
func buildXLSX(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sheet.name))
		} else {
			_, err := f.NewSheet(sheet.name)
			require.NoError(t, err)
		}
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(sheet.name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// pivotRows is a two-header-row weekly sheet with a TOTAL line.
func pivotRows() [][]interface{} {
	return [][]interface{}{
		{"", "COMPUTADORES", "", "TELEFONES"},
		{"Nº SEMANA", "NOTEBOOK", "DESKTOP", "CELULAR"},
		{1, 10, 4, 7},
		{2, 3, "", 9},
		{"TOTAL", 13, 4, 16},
	}
}

// pivotMatrix is pivotRows as strings, the way the readers return it.
func pivotMatrix() [][]string {
	return [][]string{
		{"", "COMPUTADORES", "", "TELEFONES"},
		{"Nº SEMANA", "NOTEBOOK", "DESKTOP", "CELULAR"},
		{"1", "10", "4", "7"},
		{"2", "3", "", "9"},
		{"TOTAL", "13", "4", "16"},
	}
}
