package dataprocessing

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

func newTestProcessor(opts ProcessorOptions) *FileProcessor {
	return NewFileProcessor(opts, infrastructure.NewLogger(io.Discard, "debug"))
}

func sheetOptions(source string) ProcessorOptions {
	opts := DefaultProcessorOptions()
	opts.MonthKeySource = source
	return opts
}

func TestFileProcessor_AutoPrefersSheetName(t *testing.T) {
	data := buildXLSX(t, testSheet{name: "MARÇO 2025", rows: pivotRows()})

	result := newTestProcessor(DefaultProcessorOptions()).Process(context.Background(), "vendas - JANEIRO - 2024.xlsx", data)

	require.True(t, result.Succeeded(), result.Message)
	assert.Equal(t, []string{"MARÇO/2025"}, result.MonthKeys)
	assert.Len(t, result.Records, 5)
	assert.Equal(t, 1, result.Sheets)
}

func TestFileProcessor_AutoFallsBackToFileName(t *testing.T) {
	data := buildXLSX(t, testSheet{name: "Planilha1", rows: pivotRows()})

	result := newTestProcessor(DefaultProcessorOptions()).Process(context.Background(), "vendas - ABRIL - 2025.xlsx", data)

	require.True(t, result.Succeeded())
	assert.Equal(t, []string{"ABRIL/2025"}, result.MonthKeys)
	for _, r := range result.Records {
		assert.Equal(t, "ABRIL/2025", r.MonthYear)
	}
}

func TestFileProcessor_SheetSource(t *testing.T) {
	data := buildXLSX(t,
		testSheet{name: "JANEIRO 2025", rows: pivotRows()},
		testSheet{name: "Resumo", rows: pivotRows()},
		testSheet{name: "FEVEREIRO 2025", rows: pivotRows()},
	)

	result := newTestProcessor(sheetOptions(MonthKeyFromSheet)).Process(context.Background(), "vendas - MAIO - 2025.xlsx", data)

	require.True(t, result.Succeeded())
	assert.Equal(t, 3, result.Sheets)
	assert.Equal(t, []string{"JANEIRO/2025", "FEVEREIRO/2025"}, result.MonthKeys)
	assert.Len(t, result.Records, 10)
}

func TestFileProcessor_FileNameSource(t *testing.T) {
	data := buildXLSX(t,
		testSheet{name: "JANEIRO 2025", rows: pivotRows()},
		testSheet{name: "Semana 2", rows: pivotRows()},
	)

	result := newTestProcessor(sheetOptions(MonthKeyFromFilename)).Process(context.Background(), "vendas - JUNHO - 2025.xlsx", data)

	require.True(t, result.Succeeded())
	assert.Equal(t, []string{"JUNHO/2025"}, result.MonthKeys)
	assert.Len(t, result.Records, 10)
}

func TestFileProcessor_FirstSheetOnly(t *testing.T) {
	data := buildXLSX(t,
		testSheet{name: "JANEIRO 2025", rows: pivotRows()},
		testSheet{name: "FEVEREIRO 2025", rows: pivotRows()},
	)
	opts := DefaultProcessorOptions()
	opts.FirstSheetOnly = true

	result := newTestProcessor(opts).Process(context.Background(), "vendas.xlsx", data)

	require.True(t, result.Succeeded())
	assert.Equal(t, 1, result.Sheets)
	assert.Equal(t, []string{"JANEIRO/2025"}, result.MonthKeys)
}

func TestFileProcessor_CSV(t *testing.T) {
	data := []byte(";COMPUTADORES\nNº SEMANA;NOTEBOOK\n1;10\n2;5\nTOTAL;15\n")

	result := newTestProcessor(DefaultProcessorOptions()).Process(context.Background(), "venda (4).xlsx - MARÇO - 2025.csv", data)

	require.True(t, result.Succeeded())
	assert.Equal(t, []domain.FlatRecord{
		{MonthYear: "MARÇO/2025", Subcategory: "COMPUTADORES - NOTEBOOK", Quantity: 10},
		{MonthYear: "MARÇO/2025", Subcategory: "COMPUTADORES - NOTEBOOK", Quantity: 5},
	}, result.Records)
}

func TestFileProcessor_ZeroOptionsReadTwoHeaderRows(t *testing.T) {
	data := []byte(";COMPUTADORES;\nNº SEMANA;NOTEBOOK;DESKTOP\n1;10;4\n")

	result := newTestProcessor(ProcessorOptions{}).Process(context.Background(), "vendas - MAIO - 2025.csv", data)

	require.True(t, result.Succeeded(), result.Message)
	assert.Equal(t, []domain.FlatRecord{
		{MonthYear: "MAIO/2025", Subcategory: "COMPUTADORES - NOTEBOOK", Quantity: 10},
		{MonthYear: "MAIO/2025", Subcategory: "COMPUTADORES - DESKTOP", Quantity: 4},
	}, result.Records)
}

func TestFileProcessor_MonthKeyError(t *testing.T) {
	data := buildXLSX(t, testSheet{name: "Planilha1", rows: pivotRows()})

	result := newTestProcessor(DefaultProcessorOptions()).Process(context.Background(), "venda.xlsx", data)

	require.False(t, result.Succeeded())
	assert.Equal(t, domain.FileErrorMonthKey, result.ErrorKind)
	assert.Nil(t, result.Records)
	assert.True(t, IsMonthKeyError(result.Err))
	assert.True(t, apperrors.IsType(result.Err, apperrors.ErrTypeValidation))
	assert.Contains(t, result.Message, "generic")

	outcome := result.Outcome()
	assert.False(t, outcome.Succeeded)
	assert.Equal(t, "venda.xlsx", outcome.Name)
	assert.Equal(t, domain.FileErrorMonthKey, outcome.ErrorKind)
	assert.Zero(t, outcome.Records)
}

func TestFileProcessor_ParseError(t *testing.T) {
	result := newTestProcessor(DefaultProcessorOptions()).Process(context.Background(), "MARÇO 2025.xlsx", []byte("garbage"))

	require.False(t, result.Succeeded())
	assert.Equal(t, domain.FileErrorParse, result.ErrorKind)
	assert.False(t, IsMonthKeyError(result.Err))
	assert.True(t, apperrors.IsType(result.Err, apperrors.ErrTypeParsing))
	assert.Contains(t, result.Message, "MARÇO 2025.xlsx")
}

func TestFileProcessor_NoRecordsStillSucceeds(t *testing.T) {
	data := buildXLSX(t, testSheet{name: "MAIO 2025", rows: [][]interface{}{
		{"", "A"},
		{"Nº SEMANA", "B"},
		{"TOTAL", 5},
	}})

	result := newTestProcessor(DefaultProcessorOptions()).Process(context.Background(), "vendas.xlsx", data)

	assert.True(t, result.Succeeded())
	assert.Empty(t, result.Records)
	assert.Equal(t, []string{"MAIO/2025"}, result.MonthKeys)
}

func TestUserMessage(t *testing.T) {
	msg := UserMessage("relatorio.xlsx", domain.FileErrorMonthKey, MonthKeyFromFilename)
	assert.Contains(t, msg, `"relatorio.xlsx"`)
	assert.Contains(t, msg, "from the file name")

	msg = UserMessage("relatorio.xlsx", domain.FileErrorMonthKey, MonthKeyFromSheet)
	assert.Contains(t, msg, "from the sheet names")

	msg = UserMessage("Venda.XLSX", domain.FileErrorMonthKey, MonthKeyAuto)
	assert.Contains(t, msg, "generic")

	assert.Contains(t, UserMessage("x.xlsx", domain.FileErrorParse, MonthKeyAuto), "Error reading")
	assert.Empty(t, UserMessage("x.xlsx", "", MonthKeyAuto))
}
