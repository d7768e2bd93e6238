package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvviz/internal/dataset"
)

func load(t *testing.T, content string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(content), dataset.ReadOptions{})
	require.NoError(t, err)
	return ds
}

func TestDescribeNumeric_OneToFive(t *testing.T) {
	s := DescribeNumeric([]float64{5, 3, 1, 4, 2})

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 3.0, *s.Mean)
	assert.InDelta(t, 1.5811388, *s.Std, 1e-6)
	assert.Equal(t, 1.0, *s.Min)
	assert.Equal(t, 2.0, *s.Q25)
	assert.Equal(t, 3.0, *s.Q50)
	assert.Equal(t, 4.0, *s.Q75)
	assert.Equal(t, 5.0, *s.Max)
}

func TestDescribeNumeric_Degenerate(t *testing.T) {
	empty := DescribeNumeric(nil)
	assert.Equal(t, 0, empty.Count)
	assert.Nil(t, empty.Mean)
	assert.Nil(t, empty.Std)
	assert.Nil(t, empty.Q50)

	single := DescribeNumeric([]float64{7})
	assert.Equal(t, 7.0, *single.Mean)
	assert.Nil(t, single.Std)
	assert.Equal(t, 7.0, *single.Q75)
}

func TestDescribeNumeric_ExtremeMagnitudes(t *testing.T) {
	wide := DescribeNumeric([]float64{1e308, -1e308})
	require.NotNil(t, wide.Mean)
	require.NotNil(t, wide.Std)
	require.NotNil(t, wide.Q25)
	assert.Equal(t, 0.0, *wide.Mean)
	assert.InEpsilon(t, math.Sqrt2*1e308, *wide.Std, 1e-12)
	assert.InEpsilon(t, -5e307, *wide.Q25, 1e-12)
	assert.Equal(t, 0.0, *wide.Q50)
	assert.InEpsilon(t, 5e307, *wide.Q75, 1e-12)

	big := DescribeNumeric([]float64{1e308, 1e308, 1e308})
	require.NotNil(t, big.Mean)
	assert.InEpsilon(t, 1e308, *big.Mean, 1e-12)

	_, err := json.Marshal(wide)
	require.NoError(t, err)
}

func TestQuantile_Interpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.75, Quantile(sorted, 0.25))
	assert.Equal(t, 2.5, Quantile(sorted, 0.5))
	assert.Equal(t, 3.25, Quantile(sorted, 0.75))
	assert.Equal(t, 4.0, Quantile(sorted, 1))
}

func TestDescribeCategorical_TiesKeepFirstSeen(t *testing.T) {
	col := &dataset.Column{
		Name:  "fruit",
		Type:  dataset.Text,
		Cells: []any{"pear", "apple", nil, "apple", "fig", "pear", "kiwi"},
	}

	s := DescribeCategorical(col)

	assert.Equal(t, 4, s.UniqueCount)
	assert.Equal(t, 1, s.MissingCount)
	assert.Equal(t, []string{"pear", "apple", "fig", "kiwi"}, s.TopValues.Keys())
	v, _ := s.TopValues.Get("pear")
	assert.Equal(t, 2, v)
}

func TestDescribeCategorical_LimitsTopValues(t *testing.T) {
	cells := make([]any, 0, 15)
	for i := 0; i < 15; i++ {
		cells = append(cells, fmt.Sprintf("v%02d", i))
	}
	s := DescribeCategorical(&dataset.Column{Name: "v", Type: dataset.Text, Cells: cells})

	assert.Equal(t, 15, s.UniqueCount)
	assert.Len(t, s.TopValues, TopK)
	assert.Equal(t, "v00", s.TopValues[0].Key)
}

func TestDescribe_Report(t *testing.T) {
	ds := load(t, "n,name,ok\n1,a,true\n2,b,false\n3,,true\n4,a,\n5,c,true\n")

	r, err := Describe(context.Background(), ds, Options{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, [2]int{5, 3}, r.Info.Shape)
	assert.Equal(t, []string{"n"}, r.Statistics.Numeric.Keys())
	assert.Equal(t, []string{"name", "ok"}, r.Statistics.Categorical.Keys())
	assert.Equal(t, 2, r.Summary.TotalMissing)
	assert.Equal(t, 1, r.Summary.NumericColumns)
	assert.Equal(t, 2, r.Summary.CategoricalColumns)

	missing, _ := r.Info.MissingValues.Get("name")
	assert.Equal(t, 1, missing)

	ok, _ := r.Statistics.Categorical.Get("ok")
	assert.Equal(t, []string{"true", "false"}, ok.(Categorical).TopValues.Keys())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"n":{"count":5,"mean":3,"std":1.5811388300841898,"min":1,"25%":2,"50%":3,"75%":4,"max":5}`)
}

func TestDescribe_AllNullColumn(t *testing.T) {
	ds := load(t, "a,b\n1,\n2,\n")

	r, err := Describe(context.Background(), ds, Options{})
	require.NoError(t, err)

	b, ok := r.Statistics.Numeric.Get("b")
	require.True(t, ok)
	assert.Equal(t, 0, b.(Numeric).Count)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"count":0,"mean":null,"std":null,"min":null,"25%":null,"50%":null,"75%":null,"max":null}`, string(out))
}

func TestDescribe_CanceledContext(t *testing.T) {
	ds := load(t, "a\n1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Describe(ctx, ds, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
