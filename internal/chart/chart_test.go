package chart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvviz/internal/dataset"
)

const sample = `x,y,group,label
1,10,a,p
2,20,b,q
3,30,a,p
4,,b,r
5,50,,p
`

func load(t *testing.T, content string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(content), dataset.ReadOptions{})
	require.NoError(t, err)
	return ds
}

func TestRegistry_Table(t *testing.T) {
	assert.Equal(t, []string{"bar", "box", "histogram", "line", "scatter"}, Types())

	tests := []struct {
		chartType string
		required  []Field
		optional  []Field
	}{
		{"scatter", []Field{FieldX, FieldY}, []Field{FieldColor, FieldTitle}},
		{"line", []Field{FieldX, FieldY}, []Field{FieldColor, FieldTitle}},
		{"bar", []Field{FieldX, FieldY}, []Field{FieldColor, FieldTitle}},
		{"histogram", []Field{FieldX}, []Field{FieldColor, FieldTitle}},
		{"box", []Field{FieldX}, []Field{FieldY, FieldColor, FieldTitle}},
	}
	for _, tt := range tests {
		k, ok := Lookup(tt.chartType)
		require.True(t, ok, tt.chartType)
		assert.Equal(t, tt.required, k.Required, tt.chartType)
		assert.Equal(t, tt.optional, k.Optional, tt.chartType)
	}

	assert.Panics(t, func() { Register(Kind{Type: "scatter"}) })
}

func TestBuild_Validation(t *testing.T) {
	ds := load(t, sample)

	tests := []struct {
		name      string
		req       Request
		wantField Field
		unknown   bool
	}{
		{"histogram without x", Request{Type: "histogram"}, FieldX, false},
		{"scatter without y", Request{Type: "scatter", X: "x"}, FieldY, false},
		{"unsupported type", Request{Type: "pie", X: "x"}, "chart_type", false},
		{"unknown x", Request{Type: "histogram", X: "nope"}, FieldX, true},
		{"unknown color", Request{Type: "line", X: "x", Y: "y", Color: "nope"}, FieldColor, true},
		{"unknown y on box", Request{Type: "box", X: "x", Y: "nope"}, FieldY, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(ds, tt.req)
			require.Error(t, err)
			if tt.unknown {
				var ue *UnknownColumnError
				require.ErrorAs(t, err, &ue)
				assert.Equal(t, tt.wantField, ue.Field)
				assert.Contains(t, ue.Error(), "nope")
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestBuild_DefaultsToScatter(t *testing.T) {
	ds := load(t, sample)

	fig, err := Build(ds, Request{X: "x", Y: "y"})
	require.NoError(t, err)

	require.Len(t, fig.Data, 1)
	assert.Equal(t, "scatter", fig.Data[0].Type)
	assert.Equal(t, "markers", fig.Data[0].Mode)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4), int64(5)}, fig.Data[0].X)
	assert.Equal(t, []any{int64(10), int64(20), int64(30), nil, int64(50)}, fig.Data[0].Y)
	assert.Equal(t, "Scatter Chart", fig.Layout.Title.Text)
	assert.Equal(t, "x", fig.Layout.XAxis.Title.Text)
	assert.Equal(t, "y", fig.Layout.YAxis.Title.Text)
	assert.Nil(t, fig.Layout.Legend)
}

func TestBuild_ColorSplitsTraces(t *testing.T) {
	ds := load(t, sample)

	fig, err := Build(ds, Request{Type: "line", X: "x", Y: "y", Color: "group", Title: "By group"})
	require.NoError(t, err)

	require.Len(t, fig.Data, 3)
	assert.Equal(t, "a", fig.Data[0].Name)
	assert.Equal(t, "b", fig.Data[1].Name)
	assert.Equal(t, MissingGroup, fig.Data[2].Name)
	assert.Equal(t, []any{int64(1), int64(3)}, fig.Data[0].X)
	assert.Equal(t, "lines", fig.Data[1].Mode)
	assert.Equal(t, "By group", fig.Layout.Title.Text)
	require.NotNil(t, fig.Layout.Legend)
	assert.Equal(t, "group", fig.Layout.Legend.Title.Text)
}

func TestBuild_LabelOverrides(t *testing.T) {
	ds := load(t, sample)

	fig, err := Build(ds, Request{Type: "bar", X: "label", Y: "y", XLabel: "Label", YLabel: "Total"})
	require.NoError(t, err)
	assert.Equal(t, "bar", fig.Data[0].Type)
	assert.Equal(t, "Label", fig.Layout.XAxis.Title.Text)
	assert.Equal(t, "Total", fig.Layout.YAxis.Title.Text)
}

func TestBuild_NumericHistogram(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n")
	for i := 1; i <= 100; i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteString("\n")
	}
	ds := load(t, b.String())

	fig, err := Build(ds, Request{Type: "histogram", X: "v"})
	require.NoError(t, err)

	require.Len(t, fig.Data, 1)
	tr := fig.Data[0]
	assert.Len(t, tr.X, 8) // ceil(log2 100) + 1
	assert.Len(t, tr.Width, 8)

	total := 0
	for _, c := range tr.Y {
		total += c.(int)
	}
	assert.Equal(t, 100, total)
	assert.Equal(t, "count", fig.Layout.YAxis.Title.Text)
	require.NotNil(t, fig.Layout.BarGap)
	assert.Equal(t, "Histogram Chart", fig.Layout.Title.Text)
}

func TestBuild_HistogramColorSharesEdges(t *testing.T) {
	ds := load(t, sample)

	fig, err := Build(ds, Request{Type: "histogram", X: "x", Color: "group"})
	require.NoError(t, err)

	require.Len(t, fig.Data, 3)
	for _, tr := range fig.Data[1:] {
		assert.Equal(t, fig.Data[0].X, tr.X)
	}
	sum := 0
	for _, tr := range fig.Data {
		for _, c := range tr.Y {
			sum += c.(int)
		}
	}
	assert.Equal(t, 5, sum)
}

func TestBuild_CategoricalHistogram(t *testing.T) {
	ds := load(t, sample)

	fig, err := Build(ds, Request{Type: "histogram", X: "label"})
	require.NoError(t, err)

	require.Len(t, fig.Data, 1)
	assert.Equal(t, []any{"p", "q", "r"}, fig.Data[0].X)
	assert.Equal(t, []any{3, 1, 1}, fig.Data[0].Y)
}

func TestSturgesBins(t *testing.T) {
	assert.Equal(t, Bins{}, SturgesBins(nil))

	flat := SturgesBins([]float64{4, 4, 4})
	assert.Equal(t, 1, flat.Count)
	assert.Equal(t, 1.0, flat.Width)
	assert.Equal(t, 4.0, flat.Center(0))

	b := SturgesBins([]float64{0, 10, 5, 2})
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, 0, b.Index(0))
	assert.Equal(t, 2, b.Index(10))
}

func TestSturgesBins_ExtremeRange(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"symmetric 1e308", []float64{-1e308, 1e308, 0}},
		{"full float range", []float64{-math.MaxFloat64, math.MaxFloat64}},
		{"subnormal range", []float64{0, 5e-324}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := SturgesBins(tt.values)
			require.Greater(t, b.Count, 0)
			assert.False(t, math.IsInf(b.Width, 0) || math.IsNaN(b.Width), "width %v", b.Width)
			assert.Greater(t, b.Width, 0.0)
			for i := 0; i < b.Count; i++ {
				c := b.Center(i)
				assert.False(t, math.IsInf(c, 0) || math.IsNaN(c), "center %d = %v", i, c)
			}
			for _, v := range tt.values {
				i := b.Index(v)
				assert.True(t, i >= 0 && i < b.Count, "index of %v = %d", v, i)
			}
		})
	}
}

func TestBuild_HistogramExtremeRange(t *testing.T) {
	ds := load(t, "v\n-1e308\n1e308\n0\n")

	fig, err := Build(ds, Request{Type: "histogram", X: "v"})
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)
	assert.Equal(t, []any{1, 1, 1}, fig.Data[0].Y)

	_, err = json.Marshal(fig)
	require.NoError(t, err)
}

func TestBuild_Box(t *testing.T) {
	ds := load(t, sample)

	t.Run("x only", func(t *testing.T) {
		fig, err := Build(ds, Request{Type: "box", X: "y"})
		require.NoError(t, err)
		require.Len(t, fig.Data, 1)
		assert.Equal(t, "box", fig.Data[0].Type)
		assert.Nil(t, fig.Data[0].X)
		assert.Len(t, fig.Data[0].Y, 5)
	})

	t.Run("per category", func(t *testing.T) {
		fig, err := Build(ds, Request{Type: "box", X: "label", Y: "y"})
		require.NoError(t, err)
		require.Len(t, fig.Data, 3)
		assert.Equal(t, "p", fig.Data[0].Name)
		assert.Equal(t, []any{int64(10), int64(30), int64(50)}, fig.Data[0].Y)
	})

	t.Run("grouped by color", func(t *testing.T) {
		fig, err := Build(ds, Request{Type: "box", X: "label", Y: "y", Color: "group"})
		require.NoError(t, err)
		assert.Len(t, fig.Data, 3)
		assert.Equal(t, "group", fig.Layout.BoxMode)
	})
}

func TestFigure_JSON(t *testing.T) {
	ds := load(t, "d,v\n2024-01-01,1.5\n2024-01-02,inf\n")

	fig, err := Build(ds, Request{Type: "line", X: "d", Y: "v"})
	require.NoError(t, err)

	out, err := json.Marshal(fig)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"x":["2024-01-01T00:00:00Z","2024-01-02T00:00:00Z"]`)
	assert.Contains(t, string(out), `"y":[1.5,null]`)
	assert.Contains(t, string(out), `"title":{"text":"Line Chart"}`)
}

func TestRequest_ColumnsUsed(t *testing.T) {
	req := Request{Type: "histogram", X: "a", Y: "b", Color: "c"}
	assert.Equal(t, []string{"a", "c"}, req.ColumnsUsed())

	req = Request{Type: "scatter", X: "a", Y: "b"}
	assert.Equal(t, []string{"a", "b"}, req.ColumnsUsed())
}
