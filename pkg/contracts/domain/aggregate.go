package domain

// Aggregate is the grouped view of flat records that drives chart and table rendering.
type Aggregate struct {
	// Months are distinct month keys in chronological order.
	Months []string `json:"months"`
	// Subcategories are distinct subcategory names in lexical order.
	Subcategories []string `json:"subcategories"`
	// Grouped maps month -> subcategory -> summed quantity.
	Grouped map[string]map[string]float64 `json:"grouped"`
	// SubcategoryTotals maps subcategory -> total over every month.
	SubcategoryTotals map[string]float64 `json:"subcategory_totals"`
	// MonthlyTotals maps month -> total over every subcategory.
	MonthlyTotals map[string]float64 `json:"monthly_totals"`
	// Colors maps subcategory -> palette color.
	Colors map[string]string `json:"colors"`
	// RecordCount is the number of records that contributed to the sums.
	RecordCount int `json:"record_count"`
}

// Empty reports whether the aggregate holds no month at all.
func (a *Aggregate) Empty() bool {
	return a == nil || len(a.Months) == 0
}

// Quantity returns the summed quantity for a month and subcategory, or zero.
func (a *Aggregate) Quantity(month, subcategory string) float64 {
	if a == nil {
		return 0
	}
	return a.Grouped[month][subcategory]
}

// SummaryRow is one line of the monthly totals table.
type SummaryRow struct {
	Index         int     `json:"index"`
	MonthYear     string  `json:"month_year"`
	TotalQuantity string  `json:"total_quantity"`
	Total         float64 `json:"total"`
}

// SummaryTable is the rendered monthly totals table. Placeholder is set
// only when there are no rows.
type SummaryTable struct {
	Headers     []string     `json:"headers"`
	Rows        []SummaryRow `json:"rows"`
	Placeholder string       `json:"placeholder,omitempty"`
}
