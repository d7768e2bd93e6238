package core

import (
	"github.com/JonMunkholm/csvviz/internal/chart"
	"github.com/JonMunkholm/csvviz/internal/dataset"
	"github.com/JonMunkholm/csvviz/internal/stats"
)

// UploadResult is returned by a successful upload.
type UploadResult struct {
	DatasetID     string           `json:"dataset_id"`
	Filename      string           `json:"filename"`
	Shape         [2]int           `json:"shape"`
	Columns       []string         `json:"columns"`
	DTypes        dataset.Record   `json:"dtypes"`
	Preview       []dataset.Record `json:"preview"`
	MemoryUsage   string           `json:"memory_usage"`
	MissingValues int              `json:"missing_values"`
	Message       string           `json:"message"`
}

// Pagination describes where a data page sits in its dataset.
type Pagination struct {
	Offset  int  `json:"offset" msgpack:"offset"`
	Limit   int  `json:"limit" msgpack:"limit"`
	Count   int  `json:"count" msgpack:"count"`
	HasMore bool `json:"has_more" msgpack:"has_more"`
}

// DataSummary holds dataset-wide figures shown next to a data page.
type DataSummary struct {
	MemoryUsage        string `json:"memory_usage" msgpack:"memory_usage"`
	MissingValues      int    `json:"missing_values" msgpack:"missing_values"`
	NumericColumns     int    `json:"numeric_columns" msgpack:"numeric_columns"`
	CategoricalColumns int    `json:"categorical_columns" msgpack:"categorical_columns"`
}

// DataPage is one slice of a dataset's rows.
type DataPage struct {
	DatasetID  string           `json:"dataset_id" msgpack:"dataset_id"`
	TotalRows  int              `json:"total_rows" msgpack:"total_rows"`
	Columns    []string         `json:"columns" msgpack:"columns"`
	DTypes     dataset.Record   `json:"dtypes" msgpack:"dtypes"`
	Data       []dataset.Record `json:"data" msgpack:"data"`
	Pagination Pagination       `json:"pagination" msgpack:"pagination"`
	Summary    DataSummary      `json:"summary" msgpack:"summary"`
}

// StatsResult is the statistics document for one dataset.
type StatsResult struct {
	DatasetID string `json:"dataset_id" msgpack:"dataset_id"`
	stats.Report
}

// VisualizeRequest asks for a chart of one dataset.
type VisualizeRequest struct {
	DatasetID string `json:"dataset_id"`
	chart.Request
}

// ChartParameters echoes the request's column choices.
type ChartParameters struct {
	XAxis string `json:"x_axis"`
	YAxis string `json:"y_axis,omitempty"`
	Color string `json:"color,omitempty"`
	Title string `json:"title"`
}

// ChartDatasetInfo reports how much of the dataset a chart used.
type ChartDatasetInfo struct {
	RowsUsed    int      `json:"rows_used"`
	ColumnsUsed []string `json:"columns_used"`
}

// VisualizeResult is a built chart plus request metadata.
type VisualizeResult struct {
	ChartData   *chart.Figure    `json:"chart_data"`
	ChartType   string           `json:"chart_type"`
	Parameters  ChartParameters  `json:"parameters"`
	DatasetInfo ChartDatasetInfo `json:"dataset_info"`
}

// DatasetSummary is one entry of the dataset listing.
type DatasetSummary struct {
	DatasetID     string   `json:"dataset_id"`
	Filename      string   `json:"filename"`
	Shape         [2]int   `json:"shape"`
	Columns       []string `json:"columns"`
	MemoryUsage   string   `json:"memory_usage"`
	MissingValues int      `json:"missing_values"`
}

// DatasetList is the dataset listing.
type DatasetList struct {
	Datasets    []DatasetSummary `json:"datasets"`
	Count       int              `json:"count"`
	TotalMemory string           `json:"total_memory"`
}

// ServiceStatus is a snapshot for the service banner.
type ServiceStatus struct {
	Datasets int                 `json:"uploaded_datasets"`
	Uploads  UploadLimiterStatus `json:"uploads"`
}
