package dataprocessing

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/pkg/contracts/domain"
)

func sampleRecords() []domain.FlatRecord {
	return []domain.FlatRecord{
		{MonthYear: "MARÇO/2025", Subcategory: "TELEFONES - CELULAR", Quantity: 7},
		{MonthYear: "MARÇO/2025", Subcategory: "COMPUTADORES - NOTEBOOK", Quantity: 10},
		{MonthYear: "JANEIRO/2025", Subcategory: "COMPUTADORES - NOTEBOOK", Quantity: 2},
		{MonthYear: "MARÇO/2025", Subcategory: "COMPUTADORES - NOTEBOOK", Quantity: 3},
		{MonthYear: "JANEIRO/2025", Subcategory: "TELEFONES - CELULAR", Quantity: 1.5},
	}
}

func TestAggregate_HugeCellsStayFinite(t *testing.T) {
	matrix := [][]string{
		{"", "COMPUTADORES"},
		{"Nº SEMANA", "NOTEBOOK"},
		{"1", "1e308"},
		{"2", "1e308"},
		{"3", "1e15"},
		{"4", "1e15"},
	}

	agg := Aggregate(Normalize(matrix, "MARÇO/2025", DefaultNormalizeOptions()), nil)

	assert.Equal(t, 2, agg.RecordCount)
	assert.Equal(t, 2e15, agg.MonthlyTotals["MARÇO/2025"])
	assert.False(t, math.IsInf(agg.SubcategoryTotals["COMPUTADORES - NOTEBOOK"], 0))

	formatter, err := NewLocaleFormatter("pt-BR")
	require.NoError(t, err)
	_, err = json.Marshal(agg)
	assert.NoError(t, err)
	_, err = json.Marshal(BuildTable(agg, formatter))
	assert.NoError(t, err)
}

func TestAggregate(t *testing.T) {
	agg := Aggregate(sampleRecords(), nil)

	assert.Equal(t, []string{"JANEIRO/2025", "MARÇO/2025"}, agg.Months)
	assert.Equal(t, []string{"COMPUTADORES - NOTEBOOK", "TELEFONES - CELULAR"}, agg.Subcategories)

	assert.Equal(t, 13.0, agg.Quantity("MARÇO/2025", "COMPUTADORES - NOTEBOOK"))
	assert.Equal(t, 7.0, agg.Quantity("MARÇO/2025", "TELEFONES - CELULAR"))
	assert.Equal(t, 0.0, agg.Quantity("ABRIL/2025", "TELEFONES - CELULAR"))

	assert.Equal(t, 15.0, agg.SubcategoryTotals["COMPUTADORES - NOTEBOOK"])
	assert.Equal(t, 8.5, agg.SubcategoryTotals["TELEFONES - CELULAR"])
	assert.Equal(t, 3.5, agg.MonthlyTotals["JANEIRO/2025"])
	assert.Equal(t, 20.0, agg.MonthlyTotals["MARÇO/2025"])
	assert.Equal(t, 5, agg.RecordCount)

	assert.Equal(t, "#0d6efd", agg.Colors["COMPUTADORES - NOTEBOOK"])
	assert.Equal(t, "#dc3545", agg.Colors["TELEFONES - CELULAR"])
}

func TestAggregate_IgnoresInvalidRecords(t *testing.T) {
	agg := Aggregate([]domain.FlatRecord{
		{MonthYear: "", Subcategory: "A", Quantity: 1},
		{MonthYear: "MAIO/2025", Subcategory: "", Quantity: 1},
		{MonthYear: "MAIO/2025", Subcategory: "A", Quantity: 0},
		{MonthYear: "MAIO/2025", Subcategory: "A", Quantity: -2},
		{MonthYear: "MAIO/2025", Subcategory: "A", Quantity: 4},
	}, nil)

	assert.Equal(t, []string{"MAIO/2025"}, agg.Months)
	assert.Equal(t, 4.0, agg.MonthlyTotals["MAIO/2025"])
	assert.Equal(t, 1, agg.RecordCount)
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate(nil, nil)
	require.NotNil(t, agg)
	assert.True(t, agg.Empty())
	assert.Empty(t, agg.Subcategories)
}

func TestAggregate_OrderIndependent(t *testing.T) {
	records := sampleRecords()
	// Values that do not add up exactly in binary floating point.
	for i := 0; i < 30; i++ {
		records = append(records, domain.FlatRecord{MonthYear: "ABRIL/2025", Subcategory: "X", Quantity: 0.1})
		records = append(records, domain.FlatRecord{MonthYear: "ABRIL/2025", Subcategory: "X", Quantity: 0.2})
	}

	first := Aggregate(records, nil)

	shuffled := append([]domain.FlatRecord(nil), records...)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second := Aggregate(shuffled, nil)

	assert.Equal(t, first, second)
	assert.Equal(t, 9.0, first.SubcategoryTotals["X"])
}

func TestAggregate_SameMonthAcrossFilesSums(t *testing.T) {
	fileA := Normalize(pivotMatrix(), "MARÇO/2025", DefaultNormalizeOptions())
	fileB := Normalize(pivotMatrix(), "MARÇO/2025", DefaultNormalizeOptions())

	agg := Aggregate(append(fileA, fileB...), nil)

	assert.Equal(t, []string{"MARÇO/2025"}, agg.Months)
	assert.Equal(t, 26.0, agg.Quantity("MARÇO/2025", "COMPUTADORES - NOTEBOOK"))
	assert.Equal(t, 32.0, agg.Quantity("MARÇO/2025", "TELEFONES - CELULAR"))
}

func TestAggregate_PaletteCycles(t *testing.T) {
	var records []domain.FlatRecord
	for i := 0; i < len(DefaultPalette)+2; i++ {
		records = append(records, domain.FlatRecord{
			MonthYear:   "MAIO/2025",
			Subcategory: fmt.Sprintf("SUB %02d", i),
			Quantity:    1,
		})
	}

	agg := Aggregate(records, nil)
	assert.Equal(t, DefaultPalette[0], agg.Colors["SUB 12"])
	assert.Equal(t, DefaultPalette[1], agg.Colors["SUB 13"])

	custom := Aggregate(records, []string{"#000000", "#ffffff"})
	assert.Equal(t, "#000000", custom.Colors["SUB 02"])
	assert.Equal(t, "#ffffff", custom.Colors["SUB 03"])
}
