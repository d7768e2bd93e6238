package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func tenRows(t *testing.T) *Dataset {
	t.Helper()
	var b strings.Builder
	b.WriteString("n,label\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "%d,row%d\n", i, i)
	}
	return readString(t, b.String())
}

func TestStore_PutGet(t *testing.T) {
	s := NewStore()

	first := tenRows(t)
	first.Filename = "sales.csv"
	second := tenRows(t)
	second.Filename = "sales.csv"

	id1 := s.Put(first)
	id2 := s.Put(second)

	assert.Equal(t, "sales.csv_0", id1)
	assert.Equal(t, "sales.csv_1", id2)

	got, err := s.Get(id1)
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.Get("missing_9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListInsertionOrder(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"b.csv", "a.csv", "c.csv"} {
		ds := tenRows(t)
		ds.Filename = name
		s.Put(ds)
	}

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "b.csv_0", list[0].ID)
	assert.Equal(t, "a.csv_1", list[1].ID)
	assert.Equal(t, "c.csv_2", list[2].ID)
	assert.Equal(t, [2]int{10, 2}, list[0].Shape)
	assert.Equal(t, []string{"n", "label"}, list[0].Columns)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 3*list[0].MemoryUsage, s.TotalMemory())
}

func TestStore_ConcurrentPut(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, _ := New(nil)
			ds.Filename = "same.csv"
			s.Put(ds)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, sum := range s.List() {
		assert.False(t, seen[sum.ID], "duplicate id %s", sum.ID)
		seen[sum.ID] = true
	}
	assert.Len(t, seen, 50)
}

func TestPage(t *testing.T) {
	ds := tenRows(t)

	tests := []struct {
		name      string
		offset    int
		limit     int
		wantFirst int64
		wantCount int
		wantMore  bool
	}{
		{"middle", 5, 3, 5, 3, true},
		{"tail clipped", 8, 5, 8, 2, false},
		{"exact end", 0, 10, 0, 10, false},
		{"past end", 20, 5, -1, 0, false},
		{"offset near max int", math.MaxInt - 7, 100, -1, 0, false},
		{"limit near max int", 3, math.MaxInt, 3, 7, false},
		{"both max int", math.MaxInt, math.MaxInt, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ds.Page(tt.offset, tt.limit)
			assert.Equal(t, tt.wantCount, p.Count)
			assert.Len(t, p.Rows, tt.wantCount)
			assert.Equal(t, 10, p.Total)
			assert.Equal(t, tt.wantMore, p.HasMore)
			if tt.wantCount > 0 {
				v, _ := p.Rows[0].Get("n")
				assert.Equal(t, tt.wantFirst, v)
			} else {
				assert.NotNil(t, p.Rows)
			}
		})
	}
}

func TestRecord_JSONKeepsOrder(t *testing.T) {
	ds := readString(t, "zeta,alpha,when\n1.5,,2024-03-01\n")

	out, err := json.Marshal(ds.Row(0))
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1.5,"alpha":null,"when":"2024-03-01T00:00:00Z"}`, string(out))

	out, err = json.Marshal(ds.DTypes())
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"float","alpha":"float","when":"datetime"}`, string(out))
}

func TestRecord_NonFiniteEncodesNull(t *testing.T) {
	ds := readString(t, "x\ninf\n-inf\n2\n")

	out, err := json.Marshal(ds.Records(0, 3))
	require.NoError(t, err)
	assert.Equal(t, `[{"x":null},{"x":null},{"x":2}]`, string(out))
}

func TestRecord_Msgpack(t *testing.T) {
	ds := readString(t, "b,a\n1,x\n")

	data, err := msgpack.Marshal(ds.Row(0))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &decoded))
	assert.EqualValues(t, 1, decoded["b"])
	assert.Equal(t, "x", decoded["a"])
}

func TestDataset_MemoryAndMissing(t *testing.T) {
	ds := readString(t, "n,s,ok\n1,ab,true\n2,,false\n")

	n, _ := ds.Column("n")
	s, _ := ds.Column("s")
	ok, _ := ds.Column("ok")

	assert.Equal(t, int64(16), n.MemoryUsage())
	assert.Equal(t, int64(8+49+2+8), s.MemoryUsage())
	assert.Equal(t, int64(2), ok.MemoryUsage())
	assert.Equal(t, 1, ds.MissingValues())
	assert.Equal(t, "0.1 KB", FormatKB(ds.MemoryUsage()+60))

	numeric, categorical := ds.CountKinds()
	assert.Equal(t, 1, numeric)
	assert.Equal(t, 2, categorical)
}

func TestNew_RejectsMismatchedColumns(t *testing.T) {
	_, err := New([]*Column{
		{Name: "a", Type: Integer, Cells: []any{int64(1)}},
		{Name: "b", Type: Integer, Cells: []any{}},
	})
	assert.Error(t, err)

	_, err = New([]*Column{
		{Name: "a", Type: Integer},
		{Name: "a", Type: Integer},
	})
	assert.Error(t, err)
}
