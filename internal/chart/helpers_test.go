package chart

import "salespulse/pkg/contracts/domain"

func testAggregate() *domain.Aggregate {
	return &domain.Aggregate{
		Months:        []string{"JANEIRO/2025", "MARÇO/2025"},
		Subcategories: []string{"COMPUTADORES - NOTEBOOK", "TELEFONES - CELULAR"},
		Grouped: map[string]map[string]float64{
			"JANEIRO/2025": {"COMPUTADORES - NOTEBOOK": 2},
			"MARÇO/2025":   {"COMPUTADORES - NOTEBOOK": 13, "TELEFONES - CELULAR": 16},
		},
		SubcategoryTotals: map[string]float64{"COMPUTADORES - NOTEBOOK": 15, "TELEFONES - CELULAR": 16},
		MonthlyTotals:     map[string]float64{"JANEIRO/2025": 2, "MARÇO/2025": 29},
		Colors:            map[string]string{"COMPUTADORES - NOTEBOOK": "#0d6efd", "TELEFONES - CELULAR": "#dc3545"},
		RecordCount:       3,
	}
}
