package chart

import (
	"fmt"
	"io"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

// barWidth is the share of a month slot a bar occupies.
const barWidth = 0.6

// Renderer draws chart specs with go-chart.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer returns a renderer for the given size. Non-positive sizes fall
// back to the defaults.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{Width: width, Height: height}
}

// Render writes spec to w as SVG or PNG.
func (r *Renderer) Render(spec Spec, w io.Writer, format Format) error {
	provider := gochart.SVG
	if format == FormatPNG {
		provider = gochart.PNG
	}

	var err error
	switch spec.Kind {
	case KindBar, KindLine:
		if len(spec.Labels) == 0 || len(spec.Datasets) == 0 {
			return ErrNoData
		}
		graph := r.cartesian(spec)
		err = graph.Render(provider, w)
	case KindPie:
		if len(spec.Slices) == 0 {
			return ErrNoData
		}
		graph := gochart.PieChart{
			Title:  spec.Title,
			Width:  r.Width,
			Height: r.Height,
			Values: sliceValues(spec.Slices),
		}
		err = graph.Render(provider, w)
	case KindDoughnut:
		if len(spec.Slices) == 0 {
			return ErrNoData
		}
		graph := gochart.DonutChart{
			Title:  spec.Title,
			Width:  r.Width,
			Height: r.Height,
			Values: sliceValues(spec.Slices),
		}
		err = graph.Render(provider, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", spec.Kind, err)
	}
	return nil
}

// cartesian lays months out at x = 0..n-1 with half a slot of padding on
// either side and a y axis that always starts at zero.
func (r *Renderer) cartesian(spec Spec) gochart.Chart {
	ticks := []gochart.Tick{{Value: -0.5}}
	for i, label := range spec.Labels {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: label})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(len(spec.Labels)) - 0.5})

	yMax := spec.maxValue() * 1.1
	if yMax <= 0 {
		yMax = 1
	}

	graph := gochart.Chart{
		Width:  r.Width,
		Height: r.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: wholeNumber,
		},
	}

	base := make([]float64, len(spec.Labels))
	for _, ds := range spec.Datasets {
		color := drawing.ColorFromHex(ds.Color)
		if spec.Stacked {
			graph.Series = append(graph.Series, newStackedBarSeries(ds, base, color))
			for i, v := range ds.Data {
				if i < len(base) {
					base[i] += v
				}
			}
			continue
		}

		xs := make([]float64, len(ds.Data))
		for i := range xs {
			xs[i] = float64(i)
		}
		graph.Series = append(graph.Series, gochart.ContinuousSeries{
			Name:    ds.Label,
			XValues: xs,
			YValues: ds.Data,
			Style: gochart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	return graph
}

func sliceValues(slices []Slice) []gochart.Value {
	values := make([]gochart.Value, 0, len(slices))
	for _, s := range slices {
		values = append(values, gochart.Value{
			Label: s.Label,
			Value: s.Value,
			Style: gochart.Style{
				FillColor:   drawing.ColorFromHex(s.Color),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	return values
}

func wholeNumber(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return ""
}

// stackedBarSeries draws one subcategory's segments on top of the segments
// already stacked below it. go-chart's StackedBarChart scales every bar to
// 100%, which hides the monthly totals.
type stackedBarSeries struct {
	name   string
	style  gochart.Style
	base   []float64
	values []float64
}

func newStackedBarSeries(ds Dataset, base []float64, color drawing.Color) stackedBarSeries {
	return stackedBarSeries{
		name: ds.Label,
		style: gochart.Style{
			FillColor:   color,
			StrokeColor: color,
			StrokeWidth: 1,
		},
		base:   append([]float64(nil), base...),
		values: ds.Data,
	}
}

func (s stackedBarSeries) GetName() string             { return s.name }
func (s stackedBarSeries) GetStyle() gochart.Style     { return s.style }
func (s stackedBarSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }

func (s stackedBarSeries) Validate() error {
	if len(s.base) < len(s.values) {
		return fmt.Errorf("stacked bar series %q: %d values over %d bases", s.name, len(s.values), len(s.base))
	}
	return nil
}

func (s stackedBarSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, defaults gochart.Style) {
	style := s.style.InheritFrom(defaults)
	for i, v := range s.values {
		if v <= 0 {
			continue
		}
		x := float64(i)
		box := gochart.Box{
			Left:   canvasBox.Left + xrange.Translate(x-barWidth/2),
			Right:  canvasBox.Left + xrange.Translate(x+barWidth/2),
			Top:    canvasBox.Bottom - yrange.Translate(s.base[i]+v),
			Bottom: canvasBox.Bottom - yrange.Translate(s.base[i]),
		}
		gochart.Draw.Box(r, box, style)
	}
}
