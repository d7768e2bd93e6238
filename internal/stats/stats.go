// Package stats computes dtype-aware summary statistics for a dataset.
//
// Numeric columns report count, mean, sample standard deviation (n-1),
// min, linearly interpolated quartiles and max. Every other column reports
// its distinct-value count and the ten most frequent values.
package stats

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/csvviz/internal/dataset"
)

// TopK is the number of most frequent values reported per categorical column.
const TopK = 10

// Numeric summarizes an integer or float column. Undefined values are nil.
type Numeric struct {
	Count int      `json:"count" msgpack:"count"`
	Mean  *float64 `json:"mean" msgpack:"mean"`
	Std   *float64 `json:"std" msgpack:"std"`
	Min   *float64 `json:"min" msgpack:"min"`
	Q25   *float64 `json:"25%" msgpack:"25%"`
	Q50   *float64 `json:"50%" msgpack:"50%"`
	Q75   *float64 `json:"75%" msgpack:"75%"`
	Max   *float64 `json:"max" msgpack:"max"`
}

// Categorical summarizes a text, boolean or datetime column.
type Categorical struct {
	UniqueCount  int            `json:"unique_count" msgpack:"unique_count"`
	TopValues    dataset.Record `json:"top_values" msgpack:"top_values"`
	MissingCount int            `json:"missing_count" msgpack:"missing_count"`
}

// Info describes the dataset as a whole.
type Info struct {
	Shape         [2]int         `json:"shape" msgpack:"shape"`
	Columns       []string       `json:"columns" msgpack:"columns"`
	DTypes        dataset.Record `json:"dtypes" msgpack:"dtypes"`
	MissingValues dataset.Record `json:"missing_values" msgpack:"missing_values"`
	MemoryUsage   dataset.Record `json:"memory_usage" msgpack:"memory_usage"`
}

// Statistics groups per-column summaries by kind, keyed by column name
// in header order.
type Statistics struct {
	Numeric     dataset.Record `json:"numeric" msgpack:"numeric"`
	Categorical dataset.Record `json:"categorical" msgpack:"categorical"`
}

// Summary holds dataset-wide totals.
type Summary struct {
	TotalMissing       int     `json:"total_missing" msgpack:"total_missing"`
	NumericColumns     int     `json:"numeric_columns" msgpack:"numeric_columns"`
	CategoricalColumns int     `json:"categorical_columns" msgpack:"categorical_columns"`
	MemoryUsageMB      float64 `json:"memory_usage_mb" msgpack:"memory_usage_mb"`
}

// Report is the full statistics document for one dataset.
type Report struct {
	Info       Info       `json:"info" msgpack:"info"`
	Statistics Statistics `json:"statistics" msgpack:"statistics"`
	Summary    Summary    `json:"summary" msgpack:"summary"`
}

// Options tune Describe.
type Options struct {
	// Workers bounds concurrent column summaries; 0 means unbounded.
	Workers int
}

// Describe summarizes every column of ds. Columns are processed
// concurrently and assembled in header order.
func Describe(ctx context.Context, ds *dataset.Dataset, opt Options) (*Report, error) {
	results := make([]any, len(ds.Columns))

	g, gctx := errgroup.WithContext(ctx)
	if opt.Workers > 0 {
		g.SetLimit(opt.Workers)
	}
	for i, col := range ds.Columns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if col.Type.Numeric() {
				results[i] = DescribeNumeric(col.Floats())
			} else {
				results[i] = DescribeCategorical(col)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		Info: Info{
			Shape:         ds.Shape(),
			Columns:       ds.ColumnNames(),
			DTypes:        ds.DTypes(),
			MissingValues: make(dataset.Record, 0, len(ds.Columns)),
			MemoryUsage:   make(dataset.Record, 0, len(ds.Columns)),
		},
		Statistics: Statistics{
			Numeric:     dataset.Record{},
			Categorical: dataset.Record{},
		},
	}

	var memory int64
	for i, col := range ds.Columns {
		missing := col.Missing()
		mem := col.MemoryUsage()
		memory += mem
		r.Info.MissingValues = append(r.Info.MissingValues, dataset.Field{Key: col.Name, Value: missing})
		r.Info.MemoryUsage = append(r.Info.MemoryUsage, dataset.Field{Key: col.Name, Value: mem})
		r.Summary.TotalMissing += missing

		switch s := results[i].(type) {
		case Numeric:
			r.Statistics.Numeric = append(r.Statistics.Numeric, dataset.Field{Key: col.Name, Value: s})
			r.Summary.NumericColumns++
		case Categorical:
			r.Statistics.Categorical = append(r.Statistics.Categorical, dataset.Field{Key: col.Name, Value: s})
			r.Summary.CategoricalColumns++
		}
	}
	r.Summary.MemoryUsageMB = math.Round(float64(memory)/(1024*1024)*100) / 100

	return r, nil
}

// DescribeNumeric summarizes non-null numeric values.
func DescribeNumeric(values []float64) Numeric {
	n := len(values)
	out := Numeric{Count: n}
	if n == 0 {
		return out
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)
	if math.IsInf(sum, 0) {
		mean = 0
		for _, v := range sorted {
			mean += v / float64(n)
		}
	}
	out.Mean = ptr(mean)

	if n > 1 {
		out.Std = ptr(sampleStd(sorted, mean))
	}

	out.Min = ptr(sorted[0])
	out.Q25 = ptr(Quantile(sorted, 0.25))
	out.Q50 = ptr(Quantile(sorted, 0.50))
	out.Q75 = ptr(Quantile(sorted, 0.75))
	out.Max = ptr(sorted[n-1])
	return out
}

// sampleStd is the n-1 standard deviation of sorted. When the squared
// deviations overflow it recomputes them scaled by the largest magnitude.
func sampleStd(sorted []float64, mean float64) float64 {
	n := len(sorted)
	var ss float64
	for _, v := range sorted {
		d := v - mean
		ss += d * d
	}
	if !math.IsInf(ss, 0) {
		return math.Sqrt(ss / float64(n-1))
	}

	scale := math.Max(math.Abs(sorted[0]), math.Abs(sorted[n-1]))
	ss = 0
	for _, v := range sorted {
		d := v/scale - mean/scale
		ss += d * d
	}
	return scale * math.Sqrt(ss/float64(n-1))
}

// Quantile returns the p-quantile of sorted values using linear
// interpolation between closest ranks: h = (n-1)p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	f := h - float64(lo)
	d := sorted[hi] - sorted[lo]
	if math.IsInf(d, 0) {
		return (1-f)*sorted[lo] + f*sorted[hi]
	}
	return sorted[lo] + f*d
}

// DescribeCategorical counts distinct values of col. Ties in the top
// values keep first-encountered order.
func DescribeCategorical(col *dataset.Column) Categorical {
	counts := make(map[string]int)
	var order []string
	missing := 0
	for _, v := range col.Cells {
		if v == nil {
			missing++
			continue
		}
		key := dataset.FormatCell(v)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > TopK {
		ranked = ranked[:TopK]
	}

	top := make(dataset.Record, len(ranked))
	for i, key := range ranked {
		top[i] = dataset.Field{Key: key, Value: counts[key]}
	}
	return Categorical{
		UniqueCount:  len(order),
		TopValues:    top,
		MissingCount: missing,
	}
}

// ptr returns nil for NaN and infinities so they encode as null.
func ptr(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
