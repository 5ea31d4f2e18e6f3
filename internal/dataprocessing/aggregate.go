package dataprocessing

import (
	"sort"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// DefaultPalette is cycled over the sorted subcategories.
var DefaultPalette = []string{
	"#0d6efd", "#dc3545", "#198754", "#ffc107",
	"#6c757d", "#6f42c1", "#20c997", "#0dcaf0",
	"#641a96", "#00bcd4", "#ff9800", "#8bc34a",
}

// Aggregate groups records by month and subcategory. Sums are computed in
// decimal so the result does not depend on record order. Records with an
// empty key or a non-positive quantity are ignored.
func Aggregate(records []domain.FlatRecord, palette []string) *domain.Aggregate {
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	grouped := make(map[string]map[string]decimal.Decimal)
	bySubcategory := make(map[string]decimal.Decimal)
	byMonth := make(map[string]decimal.Decimal)
	count := 0

	for _, r := range records {
		if r.MonthYear == "" || r.Subcategory == "" || !(r.Quantity > 0) {
			continue
		}
		q := decimal.NewFromFloat(r.Quantity)

		if grouped[r.MonthYear] == nil {
			grouped[r.MonthYear] = make(map[string]decimal.Decimal)
		}
		grouped[r.MonthYear][r.Subcategory] = grouped[r.MonthYear][r.Subcategory].Add(q)
		bySubcategory[r.Subcategory] = bySubcategory[r.Subcategory].Add(q)
		byMonth[r.MonthYear] = byMonth[r.MonthYear].Add(q)
		count++
	}

	agg := &domain.Aggregate{
		Months:            make([]string, 0, len(grouped)),
		Subcategories:     make([]string, 0, len(bySubcategory)),
		Grouped:           make(map[string]map[string]float64, len(grouped)),
		SubcategoryTotals: make(map[string]float64, len(bySubcategory)),
		MonthlyTotals:     make(map[string]float64, len(byMonth)),
		Colors:            make(map[string]string, len(bySubcategory)),
		RecordCount:       count,
	}

	for month, subs := range grouped {
		agg.Months = append(agg.Months, month)
		agg.Grouped[month] = make(map[string]float64, len(subs))
		for sub, total := range subs {
			agg.Grouped[month][sub] = total.InexactFloat64()
		}
		agg.MonthlyTotals[month] = byMonth[month].InexactFloat64()
	}
	SortMonths(agg.Months)

	for sub, total := range bySubcategory {
		agg.Subcategories = append(agg.Subcategories, sub)
		agg.SubcategoryTotals[sub] = total.InexactFloat64()
	}
	sort.Strings(agg.Subcategories)

	for i, sub := range agg.Subcategories {
		agg.Colors[sub] = palette[i%len(palette)]
	}

	return agg
}
