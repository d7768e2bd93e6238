// Package chart shapes dataset columns into Plotly-compatible figures.
//
// Each chart type is a registered Kind that declares its required and
// optional request fields. Build validates a request against its kind,
// checks that every referenced column exists, and hands back a
// {data, layout} figure. Nothing is rendered here.
package chart

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvviz/internal/dataset"
)

// DefaultType is used when a request names no chart type.
const DefaultType = "scatter"

// MissingGroup labels rows whose color or category value is null.
const MissingGroup = "(missing)"

// Request selects a chart type and the columns it plots.
type Request struct {
	Type   string `json:"chart_type"`
	X      string `json:"x_axis"`
	Y      string `json:"y_axis"`
	Color  string `json:"color"`
	Title  string `json:"title"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
}

func (r Request) value(f Field) string {
	switch f {
	case FieldX:
		return r.X
	case FieldY:
		return r.Y
	case FieldColor:
		return r.Color
	case FieldTitle:
		return r.Title
	}
	return ""
}

// Normalize trims the request and applies the default chart type.
func (r Request) Normalize() Request {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Type == "" {
		r.Type = DefaultType
	}
	r.X = strings.TrimSpace(r.X)
	r.Y = strings.TrimSpace(r.Y)
	r.Color = strings.TrimSpace(r.Color)
	return r
}

// ColumnsUsed lists the non-empty column fields the chart type accepts,
// in x, y, color order.
func (r Request) ColumnsUsed() []string {
	k, ok := Lookup(r.Type)
	var cols []string
	for _, f := range []Field{FieldX, FieldY, FieldColor} {
		if v := r.value(f); v != "" && (!ok || k.Accepts(f)) {
			cols = append(cols, v)
		}
	}
	return cols
}

// Text is a Plotly text container such as a title.
type Text struct {
	Text string `json:"text"`
}

// Axis is a Plotly axis definition.
type Axis struct {
	Title Text `json:"title"`
}

// Legend is a Plotly legend definition.
type Legend struct {
	Title Text `json:"title"`
}

// Layout is the subset of the Plotly layout the builders emit.
type Layout struct {
	Title   Text     `json:"title"`
	XAxis   Axis     `json:"xaxis"`
	YAxis   Axis     `json:"yaxis"`
	Legend  *Legend  `json:"legend,omitempty"`
	BarGap  *float64 `json:"bargap,omitempty"`
	BoxMode string   `json:"boxmode,omitempty"`
}

// Trace is one data series.
type Trace struct {
	Type  string    `json:"type"`
	Mode  string    `json:"mode,omitempty"`
	Name  string    `json:"name,omitempty"`
	X     []any     `json:"x,omitempty"`
	Y     []any     `json:"y,omitempty"`
	Width []float64 `json:"width,omitempty"`
}

// Figure is a Plotly {data, layout} pair.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Build validates req against its chart kind and ds, then builds the figure.
// Failures are *ValidationError or *UnknownColumnError.
func Build(ds *dataset.Dataset, req Request) (*Figure, error) {
	req = req.Normalize()

	kind, ok := Lookup(req.Type)
	if !ok {
		return nil, &ValidationError{
			Field:   "chart_type",
			Message: fmt.Sprintf("Unsupported chart type: %s (supported: %s)", req.Type, strings.Join(Types(), ", ")),
		}
	}

	for _, f := range kind.Required {
		if req.value(f) == "" {
			return nil, &ValidationError{
				Field:   f,
				Message: fmt.Sprintf("%s is required for %s charts", f, kind.Type),
			}
		}
	}

	for _, f := range []Field{FieldX, FieldY, FieldColor} {
		name := req.value(f)
		if name == "" || !kind.Accepts(f) {
			continue
		}
		if _, ok := ds.Column(name); !ok {
			return nil, &UnknownColumnError{Field: f, Column: name}
		}
	}
	if !kind.Accepts(FieldY) {
		req.Y = ""
	}

	fig := kind.build(ds, req)
	if fig.Data == nil {
		fig.Data = []Trace{}
	}

	fig.Layout.Title.Text = req.Title
	if fig.Layout.Title.Text == "" {
		fig.Layout.Title.Text = kind.Label + " Chart"
	}
	if req.XLabel != "" {
		fig.Layout.XAxis.Title.Text = req.XLabel
	}
	if req.YLabel != "" {
		fig.Layout.YAxis.Title.Text = req.YLabel
	}
	if req.Color != "" {
		fig.Layout.Legend = &Legend{Title: Text{Text: req.Color}}
	}
	return fig, nil
}

// group is a set of row indices sharing one display value.
type group struct {
	name string
	rows []int
}

// groupRows partitions rows by the display value of col in
// first-encountered order. A nil col yields one group holding every row.
func groupRows(col *dataset.Column, rows int) []group {
	if col == nil {
		all := make([]int, rows)
		for i := range all {
			all[i] = i
		}
		return []group{{rows: all}}
	}

	index := make(map[string]int)
	var groups []group
	for i, v := range col.Cells {
		key := MissingGroup
		if v != nil {
			key = dataset.FormatCell(v)
		}
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, group{name: key})
		}
		groups[g].rows = append(groups[g].rows, i)
	}
	return groups
}

// pick returns the wire values of col at the given rows.
func pick(col *dataset.Column, rows []int) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = dataset.WireValue(col.Cells[r])
	}
	return out
}

// optionalColumn returns the named column or nil when name is empty.
func optionalColumn(ds *dataset.Dataset, name string) *dataset.Column {
	if name == "" {
		return nil
	}
	col, _ := ds.Column(name)
	return col
}
