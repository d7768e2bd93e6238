package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvviz/internal/chart"
	"github.com/JonMunkholm/csvviz/internal/core"
	"github.com/JonMunkholm/csvviz/internal/web/templates"
)

// handleDashboard renders the dashboard page. The dataset table is built
// from the store at request time; charts are drawn client-side.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	list := s.service.Datasets()

	rows := make([]templates.DatasetRow, 0, len(list.Datasets))
	for _, d := range list.Datasets {
		rows = append(rows, templates.DatasetRow{
			ID:       d.DatasetID,
			Filename: d.Filename,
			Rows:     d.Shape[0],
			Columns:  d.Shape[1],
			Memory:   d.MemoryUsage,
		})
	}

	var types []templates.ChartOption
	for _, k := range chart.Kinds() {
		types = append(types, templates.ChartOption{Value: k.Type, Label: k.Label})
	}

	templ.Handler(templates.Dashboard(templates.DashboardData{
		Version:     Version,
		MaxFileSize: core.HumanBytes(s.service.Options().MaxFileSize),
		Datasets:    rows,
		ChartTypes:  types,
	})).ServeHTTP(w, r)
}
