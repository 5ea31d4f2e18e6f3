package chart

import (
	"errors"

	"salespulse/pkg/contracts/domain"
)

var (
	// ErrNoData is returned when there is nothing to plot.
	ErrNoData = errors.New("no data to chart")
	// ErrUnknownKind is returned by ParseKind.
	ErrUnknownKind = errors.New("unknown chart kind")
	// ErrUnknownFormat is returned by ParseFormat.
	ErrUnknownFormat = errors.New("unknown chart format")
)

// PieTitle heads pie and doughnut charts.
const PieTitle = "Total Contribution by Subcategory"

// Dataset is one subcategory plotted across the months.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
	Color string    `json:"color"`
}

// Slice is one subcategory's overall total.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Spec is a renderer-independent description of a chart.
type Spec struct {
	Kind     Kind      `json:"kind"`
	Title    string    `json:"title,omitempty"`
	Labels   []string  `json:"labels,omitempty"`
	Datasets []Dataset `json:"datasets,omitempty"`
	Slices   []Slice   `json:"slices,omitempty"`
	Stacked  bool      `json:"stacked"`
}

// BuildSpec lays out an aggregate for the given kind. Bar and line charts get
// one dataset per subcategory with zeros for months it is absent from; pie
// and doughnut charts get one slice per subcategory.
func BuildSpec(agg *domain.Aggregate, kind Kind) (Spec, error) {
	if agg.Empty() || len(agg.Subcategories) == 0 {
		return Spec{}, ErrNoData
	}
	kind, err := ParseKind(string(kind))
	if err != nil {
		return Spec{}, err
	}

	spec := Spec{Kind: kind}

	if kind.Series() {
		spec.Labels = append([]string(nil), agg.Months...)
		spec.Stacked = kind == KindBar
		for _, sub := range agg.Subcategories {
			data := make([]float64, len(agg.Months))
			for i, month := range agg.Months {
				data[i] = agg.Quantity(month, sub)
			}
			spec.Datasets = append(spec.Datasets, Dataset{
				Label: sub,
				Data:  data,
				Color: agg.Colors[sub],
			})
		}
		return spec, nil
	}

	spec.Title = PieTitle
	for _, sub := range agg.Subcategories {
		spec.Slices = append(spec.Slices, Slice{
			Label: sub,
			Value: agg.SubcategoryTotals[sub],
			Color: agg.Colors[sub],
		})
	}
	return spec, nil
}

// maxValue is the tallest point of the chart: the largest stacked month
// total for bar charts, the largest single value otherwise.
func (s Spec) maxValue() float64 {
	max := 0.0
	for i := range s.Labels {
		sum := 0.0
		for _, ds := range s.Datasets {
			if i >= len(ds.Data) {
				continue
			}
			if s.Stacked {
				sum += ds.Data[i]
			} else if ds.Data[i] > max {
				max = ds.Data[i]
			}
		}
		if sum > max {
			max = sum
		}
	}
	return max
}
