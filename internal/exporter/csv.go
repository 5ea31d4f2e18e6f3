package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"salespulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Export file names.
const (
	MonthlyFileName = "monthly.csv"
	RecordsFileName = "records.csv"
)

// RecordHeaders are the columns of the flat records export.
var RecordHeaders = []string{"Month/Year", "Subcategory", "Quantity"}

// WriteOptions configures CSV writing.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // UTF-8 BOM for Excel
	Comma     rune // ',' when zero
}

// WriteCSV writes headers and records to w.
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if options.Comma != 0 {
		writer.Comma = options.Comma
	}

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes a CSV file, creating its directory first.
func WriteFile(path string, options WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteCSV(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// MonthlyOptions lays out the monthly totals table. Totals are written as
// plain numbers so spreadsheets can sum them.
func MonthlyOptions(table domain.SummaryTable) WriteOptions {
	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		records = append(records, []string{
			formatInt(row.Index),
			row.MonthYear,
			formatQuantity(row.Total),
		})
	}
	return WriteOptions{Headers: table.Headers, Records: records, BOMPrefix: true}
}

// RecordOptions lays out flat records in their original order.
func RecordOptions(records []domain.FlatRecord) WriteOptions {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.MonthYear, r.Subcategory, formatQuantity(r.Quantity)})
	}
	return WriteOptions{Headers: RecordHeaders, Records: rows, BOMPrefix: true}
}

// WriteMonthly writes the monthly totals table to w.
func WriteMonthly(w io.Writer, table domain.SummaryTable) error {
	return WriteCSV(w, MonthlyOptions(table))
}

// WriteRecords writes the flat records to w.
func WriteRecords(w io.Writer, records []domain.FlatRecord) error {
	return WriteCSV(w, RecordOptions(records))
}
