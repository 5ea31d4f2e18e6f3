package chart

import (
	"fmt"
	"strings"
)

// Kind is a chart type the dashboard can draw.
type Kind string

const (
	// KindBar stacks one bar segment per subcategory for every month.
	KindBar Kind = "bar"
	// KindLine draws one unstacked line per subcategory across the months.
	KindLine Kind = "line"
	// KindPie shows each subcategory's share of the overall total.
	KindPie Kind = "pie"
	// KindDoughnut is a pie with a hole.
	KindDoughnut Kind = "doughnut"
)

// Kinds lists every supported chart kind in menu order.
var Kinds = []Kind{KindBar, KindLine, KindPie, KindDoughnut}

// ParseKind accepts a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindBar, KindLine, KindPie, KindDoughnut:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Series reports whether the kind plots months along an axis.
func (k Kind) Series() bool {
	return k == KindBar || k == KindLine
}

// Format is the image encoding of a rendered chart.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat defaults to SVG when s is empty.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the HTTP media type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}
