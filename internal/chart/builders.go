package chart

import (
	"math"

	"github.com/JonMunkholm/csvviz/internal/dataset"
)

func buildScatter(ds *dataset.Dataset, req Request) *Figure {
	return buildXY(ds, req, "scatter", "markers")
}

func buildLine(ds *dataset.Dataset, req Request) *Figure {
	return buildXY(ds, req, "scatter", "lines")
}

func buildBar(ds *dataset.Dataset, req Request) *Figure {
	return buildXY(ds, req, "bar", "")
}

// buildXY emits one trace per color group, x/y in stored row order.
func buildXY(ds *dataset.Dataset, req Request, traceType, mode string) *Figure {
	x, _ := ds.Column(req.X)
	y, _ := ds.Column(req.Y)
	color := optionalColumn(ds, req.Color)

	fig := &Figure{}
	for _, g := range groupRows(color, ds.Rows()) {
		fig.Data = append(fig.Data, Trace{
			Type: traceType,
			Mode: mode,
			Name: g.name,
			X:    pick(x, g.rows),
			Y:    pick(y, g.rows),
		})
	}
	fig.Layout.XAxis.Title.Text = req.X
	fig.Layout.YAxis.Title.Text = req.Y
	return fig
}

func buildHistogram(ds *dataset.Dataset, req Request) *Figure {
	x, _ := ds.Column(req.X)
	color := optionalColumn(ds, req.Color)
	groups := groupRows(color, ds.Rows())

	fig := &Figure{}
	if x.Type.Numeric() {
		fig.Data = numericHistogram(x, groups)
	} else {
		fig.Data = categoricalHistogram(x, groups)
	}

	gap := 0.0
	fig.Layout.BarGap = &gap
	fig.Layout.XAxis.Title.Text = req.X
	fig.Layout.YAxis.Title.Text = "count"
	return fig
}

// Bins is an equal-width binning over [Min, Min+Count*Width]; the last
// bin is closed on the right.
type Bins struct {
	Min   float64
	Width float64
	Count int
}

// SturgesBins picks ceil(log2 n)+1 equal-width bins spanning values.
// A zero-range input gets one bin of width 1 centered on the value.
// No values yields zero bins. The width is computed as hi/n - lo/n so
// ranges wider than the largest float64 still give finite edges.
func SturgesBins(values []float64) Bins {
	if len(values) == 0 {
		return Bins{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return Bins{Min: lo - 0.5, Width: 1, Count: 1}
	}
	n := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	width := hi/float64(n) - lo/float64(n)
	if width <= 0 || math.IsInf(width, 0) || math.IsNaN(width) {
		return Bins{Min: lo, Width: hi - lo, Count: 1}
	}
	return Bins{Min: lo, Width: width, Count: n}
}

// Index returns the bin holding v.
func (b Bins) Index(v float64) int {
	pos := (v - b.Min) / b.Width
	if math.IsInf(v-b.Min, 0) {
		pos = v/b.Width - b.Min/b.Width
	}
	if pos >= float64(b.Count) {
		return b.Count - 1
	}
	if !(pos > 0) {
		return 0
	}
	return int(pos)
}

// Center returns the midpoint of bin i, computed at half scale so the
// offset from Min stays finite.
func (b Bins) Center(i int) float64 {
	return 2 * (b.Min/2 + (float64(i)+0.5)*(b.Width/2))
}

func finiteValues(col *dataset.Column, rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		f, ok := dataset.ToFloat(col.Cells[r])
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// numericHistogram bins every group over shared edges computed from all rows.
func numericHistogram(x *dataset.Column, groups []group) []Trace {
	var all []float64
	perGroup := make([][]float64, len(groups))
	for i, g := range groups {
		perGroup[i] = finiteValues(x, g.rows)
		all = append(all, perGroup[i]...)
	}
	bins := SturgesBins(all)

	centers := make([]any, bins.Count)
	widths := make([]float64, bins.Count)
	for i := range centers {
		centers[i] = bins.Center(i)
		widths[i] = bins.Width
	}

	traces := make([]Trace, 0, len(groups))
	for i, g := range groups {
		counts := make([]any, bins.Count)
		tally := make([]int, bins.Count)
		for _, v := range perGroup[i] {
			tally[bins.Index(v)]++
		}
		for j, c := range tally {
			counts[j] = c
		}
		traces = append(traces, Trace{
			Type:  "bar",
			Name:  g.name,
			X:     centers,
			Y:     counts,
			Width: widths,
		})
	}
	return traces
}

// categoricalHistogram counts each category in first-encountered order.
// Groups share the global category order so bars line up.
func categoricalHistogram(x *dataset.Column, groups []group) []Trace {
	index := make(map[string]int)
	var categories []any
	for _, v := range x.Cells {
		if v == nil {
			continue
		}
		key := dataset.FormatCell(v)
		if _, ok := index[key]; !ok {
			index[key] = len(categories)
			categories = append(categories, key)
		}
	}

	traces := make([]Trace, 0, len(groups))
	for _, g := range groups {
		tally := make([]int, len(categories))
		for _, r := range g.rows {
			if v := x.Cells[r]; v != nil {
				tally[index[dataset.FormatCell(v)]]++
			}
		}
		counts := make([]any, len(tally))
		for i, c := range tally {
			counts[i] = c
		}
		traces = append(traces, Trace{
			Type: "bar",
			Name: g.name,
			X:    categories,
			Y:    counts,
		})
	}
	return traces
}

// buildBox draws the x column as one distribution, or with y one box per
// x category; a color column splits traces and groups the boxes.
func buildBox(ds *dataset.Dataset, req Request) *Figure {
	x, _ := ds.Column(req.X)
	y := optionalColumn(ds, req.Y)
	color := optionalColumn(ds, req.Color)

	fig := &Figure{}
	switch {
	case y == nil && color == nil:
		fig.Data = []Trace{{Type: "box", Name: req.X, Y: pick(x, groupRows(nil, ds.Rows())[0].rows)}}
		fig.Layout.YAxis.Title.Text = req.X

	case y == nil:
		for _, g := range groupRows(color, ds.Rows()) {
			fig.Data = append(fig.Data, Trace{Type: "box", Name: g.name, Y: pick(x, g.rows)})
		}
		fig.Layout.YAxis.Title.Text = req.X

	case color == nil:
		for _, g := range groupRows(x, ds.Rows()) {
			fig.Data = append(fig.Data, Trace{Type: "box", Name: g.name, Y: pick(y, g.rows)})
		}
		fig.Layout.XAxis.Title.Text = req.X
		fig.Layout.YAxis.Title.Text = req.Y

	default:
		for _, g := range groupRows(color, ds.Rows()) {
			fig.Data = append(fig.Data, Trace{
				Type: "box",
				Name: g.name,
				X:    pick(x, g.rows),
				Y:    pick(y, g.rows),
			})
		}
		fig.Layout.BoxMode = "group"
		fig.Layout.XAxis.Title.Text = req.X
		fig.Layout.YAxis.Title.Text = req.Y
	}
	return fig
}
