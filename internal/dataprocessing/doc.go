// Package dataprocessing turns weekly sales spreadsheets into the monthly
// aggregate behind the dashboard chart and table.
//
// # Data Flow
//
//	Upload → ReadWorkbook → month key → Normalize → []FlatRecord → Aggregate → BuildTable
//
// Input sheets are "pivot" tables: row 0 holds sparse category labels that
// carry forward to the right, row 1 holds subcategory labels, column 0 holds
// the week number and every other cell a quantity:
//
//	           | COMPUTADORES |          | TELEFONES
//	Nº SEMANA  | NOTEBOOK     | DESKTOP  | CELULAR
//	1          | 10           | 4        | 7
//	2          | 3            |          | 9
//	TOTAL      | 13           | 4        | 16
//
// Normalize unpivots that into one FlatRecord per positive quantity, named
// "COMPUTADORES - NOTEBOOK" and so on. The month is not in the sheet: it is
// read from the sheet name or the file name ("vendas - MARÇO - 2025.xlsx").
//
// # Error Handling
//
// Errors are file-scoped. FileProcessor never returns an error for a single
// bad file; it reports a FileResult with an ErrorKind so a batch can keep
// going with the remaining files.
//
// # Usage
//
//	processor := dataprocessing.NewFileProcessor(dataprocessing.DefaultProcessorOptions(), logger)
//	result := processor.Process(ctx, "vendas - MARÇO - 2025.xlsx", data)
//	agg := dataprocessing.Aggregate(result.Records, dataprocessing.DefaultPalette)
//	table := dataprocessing.BuildTable(agg, formatter)
package dataprocessing
