package dataprocessing

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"salespulse/pkg/contracts/domain"
)

// TablePlaceholder is shown instead of rows when nothing was consolidated.
const TablePlaceholder = "No consolidated monthly data found."

// TableHeaders are the column titles of the monthly summary table.
var TableHeaders = []string{"#", "Month/Year", "Total Quantity"}

// NumberFormatter renders a quantity for display.
type NumberFormatter interface {
	Format(v float64) string
}

// LocaleFormatter formats whole quantities with locale digit grouping,
// e.g. 1234 → "1.234" for pt-BR.
type LocaleFormatter struct {
	printer *message.Printer
}

// NewLocaleFormatter builds a formatter for a BCP 47 tag such as "pt-BR".
func NewLocaleFormatter(locale string) (*LocaleFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &LocaleFormatter{printer: message.NewPrinter(tag)}, nil
}

// Format rounds v to a whole number and groups its digits.
func (f *LocaleFormatter) Format(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}

// BuildTable lists monthly totals in chronological order. An empty aggregate
// yields no rows and the placeholder text.
func BuildTable(agg *domain.Aggregate, formatter NumberFormatter) domain.SummaryTable {
	table := domain.SummaryTable{Headers: TableHeaders}
	if agg.Empty() {
		table.Rows = []domain.SummaryRow{}
		table.Placeholder = TablePlaceholder
		return table
	}

	table.Rows = make([]domain.SummaryRow, 0, len(agg.Months))
	for i, month := range agg.Months {
		total := agg.MonthlyTotals[month]
		table.Rows = append(table.Rows, domain.SummaryRow{
			Index:         i + 1,
			MonthYear:     month,
			TotalQuantity: formatter.Format(total),
			Total:         total,
		})
	}
	return table
}
