package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"salespulse/pkg/contracts/domain"
)

// weekHeaders are the period column labels. They are never a category or
// subcategory.
var weekHeaders = map[string]bool{
	"Nº SEMANA": true,
	"N° SEMANA": true,
	"NO SEMANA": true,
}

// leadingNumber matches the numeric prefix of a cell, the way a spreadsheet
// user reads "7 un" as 7.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// NormalizeOptions selects the sheet layout variant. The zero value is the
// two-header-row layout: categories in row 0, subcategories in row 1, and
// only numeric periods counted.
type NormalizeOptions struct {
	// SingleHeaderRow expects one subcategory header row with no categories.
	SingleHeaderRow bool
	// AllowTextPeriod keeps data rows whose period cell is not a number.
	AllowTextPeriod bool
}

// DefaultNormalizeOptions returns the two-header-row layout.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{}
}

// column maps a sheet column to its full subcategory name.
type column struct {
	index       int
	subcategory string
}

// Normalize unpivots a raw sheet matrix into flat records for monthKey.
// Only positive numeric quantities produce a record.
func Normalize(matrix [][]string, monthKey string, opts NormalizeOptions) []domain.FlatRecord {
	categoryRow := !opts.SingleHeaderRow
	headerRows := 1
	if categoryRow {
		headerRows = 2
	}
	if len(matrix) < headerRows+1 {
		return nil
	}

	columns := mapColumns(matrix, categoryRow)
	if len(columns) == 0 {
		return nil
	}

	var records []domain.FlatRecord
	for _, row := range matrix[headerRows:] {
		if skipRow(row, !opts.AllowTextPeriod) {
			continue
		}
		for _, col := range columns {
			quantity, ok := ParseQuantity(cellAt(row, col.index))
			if !ok || quantity <= 0 {
				continue
			}
			records = append(records, domain.FlatRecord{
				MonthYear:   monthKey,
				Subcategory: col.subcategory,
				Quantity:    quantity,
			})
		}
	}
	return records
}

// mapColumns resolves the subcategory name of every data column. Column 0 is
// the period column and is never mapped.
func mapColumns(matrix [][]string, categoryRow bool) []column {
	var categories, subcategories []string
	if categoryRow {
		categories, subcategories = matrix[0], matrix[1]
	} else {
		subcategories = matrix[0]
	}

	var (
		columns  []column
		category string
	)
	for i := 1; i < len(subcategories); i++ {
		// Categories are sparse: a label applies until the next one.
		if label := strings.TrimSpace(cellAt(categories, i)); label != "" && !isWeekHeader(label) {
			category = label
		}

		sub := strings.TrimSpace(subcategories[i])
		if sub == "" || isWeekHeader(sub) {
			continue
		}

		name := sub
		if category != "" {
			name = category + " - " + sub
		}
		columns = append(columns, column{index: i, subcategory: name})
	}
	return columns
}

func skipRow(row []string, requireNumericPeriod bool) bool {
	period := strings.ToUpper(strings.TrimSpace(cellAt(row, 0)))
	if period == "" || strings.Contains(period, "TOTAL") {
		return true
	}
	if requireNumericPeriod {
		if _, ok := ParseQuantity(period); !ok {
			return true
		}
	}
	return false
}

// MaxQuantity bounds a single cell. Integers up to it are exact in a
// float64 and totals of many such cells stay finite.
const MaxQuantity = 1e15

// ParseQuantity reads the leading number of a cell: "12" → 12, "12.5" → 12.5,
// "7 un" → 7. Cells without a numeric prefix, or whose magnitude exceeds
// MaxQuantity, report false.
func ParseQuantity(cell string) (float64, bool) {
	prefix := leadingNumber.FindString(strings.TrimSpace(cell))
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.Abs(v) > MaxQuantity {
		return 0, false
	}
	return v, true
}

func isWeekHeader(label string) bool {
	return weekHeaders[strings.ToUpper(strings.Join(strings.Fields(label), " "))]
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
