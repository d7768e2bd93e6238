// Package templates renders the dashboard page. Components are written in
// .templ files; run `templ generate` after editing them.
package templates

// DatasetRow is one line of the dataset table.
type DatasetRow struct {
	ID       string
	Filename string
	Rows     int
	Columns  int
	Memory   string
}

// ChartOption is one entry of the chart type selector.
type ChartOption struct {
	Value string
	Label string
}

// DashboardData is everything the dashboard page renders server-side.
type DashboardData struct {
	Version     string
	MaxFileSize string
	Datasets    []DatasetRow
	ChartTypes  []ChartOption
}

type selectField struct {
	Name  string
	Label string
}

var columnSelects = []selectField{
	{Name: "x_axis", Label: "X axis"},
	{Name: "y_axis", Label: "Y axis"},
	{Name: "color", Label: "Color"},
}
