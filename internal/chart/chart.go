// Package chart turns the numeric columns of a table into drawable series.
//
// Three charts are produced, matching the visualization panel:
//
//   - bar: the first two numeric columns (or the only one), grouped per row
//   - line: every numeric column
//   - area: every numeric column, filled down to the baseline
//
// Coordinates are already scaled into a width x height box with a fixed
// padding, so renderers only have to emit SVG primitives.
package chart

import (
	"errors"
	"math"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// ErrNoNumericColumns is returned when a table has nothing to plot.
var ErrNoNumericColumns = errors.New("data must have numeric columns in order to visualize")

// MaxPoints caps the rows drawn per chart.
const MaxPoints = 200

// Padding is the blank margin around the plot area.
const Padding = 24.0

// palette colours series in order.
var palette = []string{"#2563eb", "#dc2626", "#16a34a", "#d97706", "#7c3aed", "#0891b2", "#db2777", "#4b5563"}

// Kind names a chart type.
type Kind string

const (
	Bar  Kind = "bar"
	Line Kind = "line"
	Area Kind = "area"
)

// Point is one plotted cell.
type Point struct {
	Row   int     `json:"row"`
	Value float64 `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Series is one column's points. Missing cells have no point.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Chart is a scaled chart ready to render.
type Chart struct {
	Kind     Kind     `json:"kind"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	YMin     float64  `json:"yMin"`
	YMax     float64  `json:"yMax"`
	Baseline float64  `json:"baseline"` // y coordinate of value 0, clamped to the plot
	BarWidth float64  `json:"barWidth,omitempty"`
	Series   []Series `json:"series"`
}

// Set holds the three charts for a table.
type Set struct {
	Bar       *Chart `json:"bar"`
	Line      *Chart `json:"line"`
	Area      *Chart `json:"area"`
	Rows      int    `json:"rows"`
	Truncated bool   `json:"truncated"`
}

// Build scales the table's numeric columns into a box of width x height.
func Build(t *table.Table, width, height int) (*Set, error) {
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return nil, ErrNoNumericColumns
	}

	rows := t.NumRows()
	truncated := rows > MaxPoints
	if truncated {
		rows = MaxPoints
	}

	cols := make([]table.Column, len(numeric))
	for i, name := range numeric {
		cols[i], _ = t.Column(name)
	}

	barCols := cols
	if len(barCols) > 2 {
		barCols = barCols[:2]
	}

	w, h := float64(width), float64(height)
	return &Set{
		Bar:       scale(Bar, barCols, rows, w, h),
		Line:      scale(Line, cols, rows, w, h),
		Area:      scale(Area, cols, rows, w, h),
		Rows:      rows,
		Truncated: truncated,
	}, nil
}

// scale lays out the first rows cells of each column.
func scale(kind Kind, cols []table.Column, rows int, w, h float64) *Chart {
	lo, hi := valueRange(cols, rows)

	c := &Chart{
		Kind:   kind,
		Width:  w,
		Height: h,
		YMin:   lo,
		YMax:   hi,
		Series: make([]Series, len(cols)),
	}

	plotW := math.Max(w-2*Padding, 1)
	plotH := math.Max(h-2*Padding, 1)

	// Halved operands keep hi-lo finite for values near the float64 limit.
	span := hi/2 - lo/2
	y := func(v float64) float64 {
		return Padding + plotH*(1-(v/2-lo/2)/span)
	}
	c.Baseline = y(math.Max(lo, math.Min(0, hi)))

	var x func(row, series int) float64
	switch kind {
	case Bar:
		group := plotW / float64(max(rows, 1))
		c.BarWidth = group * 0.8 / float64(len(cols))
		x = func(row, series int) float64 {
			return Padding + float64(row)*group + group*0.1 + float64(series)*c.BarWidth
		}
	default:
		step := 0.0
		if rows > 1 {
			step = plotW / float64(rows-1)
		}
		x = func(row, _ int) float64 {
			if rows == 1 {
				return Padding + plotW/2
			}
			return Padding + float64(row)*step
		}
	}

	for s, col := range cols {
		series := Series{Name: col.Name, Color: palette[s%len(palette)]}
		for i := 0; i < rows; i++ {
			v := col.Values[i]
			if v.Missing {
				continue
			}
			series.Points = append(series.Points, Point{
				Row:   i,
				Value: v.Num,
				X:     x(i, s),
				Y:     y(v.Num),
			})
		}
		c.Series[s] = series
	}

	return c
}

// valueRange returns the y range covering 0 and every plotted value.
func valueRange(cols []table.Column, rows int) (float64, float64) {
	lo, hi := 0.0, 0.0
	for _, col := range cols {
		for i := 0; i < rows; i++ {
			v := col.Values[i]
			if v.Missing {
				continue
			}
			lo = math.Min(lo, v.Num)
			hi = math.Max(hi, v.Num)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}
