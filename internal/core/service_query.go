package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvviz/internal/chart"
	"github.com/JonMunkholm/csvviz/internal/dataset"
	"github.com/JonMunkholm/csvviz/internal/stats"
)

// errInvalidPage marks bad offset or limit values.
var errInvalidPage = errors.New("invalid pagination")

func invalidPage(format string, args ...any) error {
	return withKind(ErrValidation, withKind(errInvalidPage, fmt.Errorf(format, args...)))
}

// Dataset returns the stored dataset for id.
func (s *Service) Dataset(id string) (*dataset.Dataset, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return nil, kindf(ErrNotFound, "Dataset not found")
	}
	return ds, nil
}

// ParsePage reads offset and limit query values. Empty values take the
// defaults; limits above the configured maximum are clamped.
func (s *Service) ParsePage(offsetStr, limitStr string) (offset, limit int, err error) {
	offset, limit = 0, s.opts.DefaultPageLimit

	if v := strings.TrimSpace(offsetStr); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, invalidPage("offset must be an integer, got %q", offsetStr)
		}
		if offset < 0 {
			return 0, 0, invalidPage("offset must be >= 0, got %d", offset)
		}
	}
	if v := strings.TrimSpace(limitStr); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, invalidPage("limit must be an integer, got %q", limitStr)
		}
		if limit <= 0 {
			return 0, 0, invalidPage("limit must be > 0, got %d", limit)
		}
	}
	limit = min(limit, s.opts.MaxPageLimit)
	return offset, limit, nil
}

// Data returns rows [offset, offset+limit) of a dataset.
func (s *Service) Data(_ context.Context, id string, offset, limit int) (*DataPage, error) {
	ds, err := s.Dataset(id)
	if err != nil {
		return nil, err
	}
	if offset < 0 || limit <= 0 {
		return nil, invalidPage("offset must be >= 0 and limit > 0")
	}

	page := ds.Page(offset, limit)
	numeric, categorical := ds.CountKinds()
	return &DataPage{
		DatasetID: ds.ID,
		TotalRows: page.Total,
		Columns:   ds.ColumnNames(),
		DTypes:    ds.DTypes(),
		Data:      page.Rows,
		Pagination: Pagination{
			Offset:  page.Offset,
			Limit:   page.Limit,
			Count:   page.Count,
			HasMore: page.HasMore,
		},
		Summary: DataSummary{
			MemoryUsage:        dataset.FormatKB(ds.MemoryUsage()),
			MissingValues:      ds.MissingValues(),
			NumericColumns:     numeric,
			CategoricalColumns: categorical,
		},
	}, nil
}

// Stats computes summary statistics for a dataset.
func (s *Service) Stats(ctx context.Context, id string) (*StatsResult, error) {
	ds, err := s.Dataset(id)
	if err != nil {
		return nil, err
	}
	report, err := stats.Describe(ctx, ds, stats.Options{Workers: s.opts.StatsWorkers})
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", id, err)
	}
	return &StatsResult{DatasetID: ds.ID, Report: *report}, nil
}

// Visualize builds a chart for a dataset.
func (s *Service) Visualize(_ context.Context, req VisualizeRequest) (*VisualizeResult, error) {
	if strings.TrimSpace(req.DatasetID) == "" {
		return nil, kindf(ErrValidation, "dataset_id is required")
	}
	ds, err := s.Dataset(req.DatasetID)
	if err != nil {
		return nil, err
	}

	creq := req.Request.Normalize()
	fig, err := chart.Build(ds, creq)
	if err != nil {
		var ue *chart.UnknownColumnError
		if errors.As(err, &ue) {
			return nil, withKind(ErrUnknownColumn, err)
		}
		return nil, withKind(ErrValidation, err)
	}

	return &VisualizeResult{
		ChartData: fig,
		ChartType: creq.Type,
		Parameters: ChartParameters{
			XAxis: creq.X,
			YAxis: creq.Y,
			Color: creq.Color,
			Title: fig.Layout.Title.Text,
		},
		DatasetInfo: ChartDatasetInfo{
			RowsUsed:    ds.Rows(),
			ColumnsUsed: creq.ColumnsUsed(),
		},
	}, nil
}

// Datasets lists stored datasets in upload order.
func (s *Service) Datasets() *DatasetList {
	list := s.store.List()
	out := &DatasetList{
		Datasets:    make([]DatasetSummary, 0, len(list)),
		Count:       len(list),
		TotalMemory: dataset.FormatKB(s.store.TotalMemory()),
	}
	for _, d := range list {
		out.Datasets = append(out.Datasets, DatasetSummary{
			DatasetID:     d.ID,
			Filename:      d.Filename,
			Shape:         d.Shape,
			Columns:       d.Columns,
			MemoryUsage:   dataset.FormatKB(d.MemoryUsage),
			MissingValues: d.MissingValues,
		})
	}
	return out
}

// Uploads returns recent upload events, newest first.
func (s *Service) Uploads(ctx context.Context, limit int) ([]UploadEvent, error) {
	events, err := s.audit.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	if events == nil {
		events = []UploadEvent{}
	}
	return events, nil
}
