// Package dataset holds the in-memory tabular model behind every upload:
// typed columns, the process-wide store, CSV parsing and row pagination.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// TimeLayout is how datetime cells are rendered in records.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// Column is a named, typed sequence of cells. A nil cell is a missing value.
type Column struct {
	Name  string
	Type  DType
	Cells []any
}

// Missing returns the number of null cells.
func (c *Column) Missing() int {
	n := 0
	for _, v := range c.Cells {
		if v == nil {
			n++
		}
	}
	return n
}

// Floats returns the non-null numeric cells as float64 in row order.
// Non-numeric columns yield nil.
func (c *Column) Floats() []float64 {
	if !c.Type.Numeric() {
		return nil
	}
	out := make([]float64, 0, len(c.Cells))
	for _, v := range c.Cells {
		if f, ok := ToFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// MemoryUsage estimates the bytes held by the column. Fixed-width types
// count 8 bytes per cell (1 for booleans); text counts a pointer plus a
// string header overhead and the string bytes.
func (c *Column) MemoryUsage() int64 {
	switch c.Type {
	case Boolean:
		return int64(len(c.Cells))
	case Text:
		var total int64
		for _, v := range c.Cells {
			total += 8
			if s, ok := v.(string); ok {
				total += 49 + int64(len(s))
			}
		}
		return total
	default:
		return 8 * int64(len(c.Cells))
	}
}

// ToFloat converts a numeric cell to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// FormatCell renders a cell as display text. Nulls render as "".
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(TimeLayout)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Dataset is an immutable table created by one upload.
type Dataset struct {
	ID        string
	Filename  string
	UploadID  string
	CreatedAt time.Time
	// Size is the byte length of the uploaded content.
	Size    int64
	Columns []*Column

	rows  int
	index map[string]int
}

// New builds a dataset from columns of equal length.
func New(columns []*Column) (*Dataset, error) {
	d := &Dataset{Columns: columns, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if i == 0 {
			d.rows = len(c.Cells)
		} else if len(c.Cells) != d.rows {
			return nil, fmt.Errorf("column %q has %d cells, want %d", c.Name, len(c.Cells), d.rows)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		d.index[c.Name] = i
	}
	return d, nil
}

// Rows returns the number of rows.
func (d *Dataset) Rows() int { return d.rows }

// Shape returns [rows, columns].
func (d *Dataset) Shape() [2]int { return [2]int{d.rows, len(d.Columns)} }

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Columns[i], true
}

// ColumnNames returns the header in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// DTypes returns column name to type name, in header order.
func (d *Dataset) DTypes() Record {
	rec := make(Record, len(d.Columns))
	for i, c := range d.Columns {
		rec[i] = Field{Key: c.Name, Value: string(c.Type)}
	}
	return rec
}

// Row returns row i as an ordered record.
func (d *Dataset) Row(i int) Record {
	rec := make(Record, len(d.Columns))
	for j, c := range d.Columns {
		rec[j] = Field{Key: c.Name, Value: c.Cells[i]}
	}
	return rec
}

// Records returns rows [from, to) clipped to the dataset bounds.
func (d *Dataset) Records(from, to int) []Record {
	if from < 0 {
		from = 0
	}
	if to > d.rows {
		to = d.rows
	}
	if from >= to {
		return []Record{}
	}
	out := make([]Record, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, d.Row(i))
	}
	return out
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) []Record {
	return d.Records(0, n)
}

// MissingValues returns the total number of null cells.
func (d *Dataset) MissingValues() int {
	n := 0
	for _, c := range d.Columns {
		n += c.Missing()
	}
	return n
}

// MemoryUsage returns the estimated bytes held by all columns.
func (d *Dataset) MemoryUsage() int64 {
	var total int64
	for _, c := range d.Columns {
		total += c.MemoryUsage()
	}
	return total
}

// CountKinds returns how many columns are numeric and how many are not.
func (d *Dataset) CountKinds() (numeric, categorical int) {
	for _, c := range d.Columns {
		if c.Type.Numeric() {
			numeric++
		} else {
			categorical++
		}
	}
	return numeric, categorical
}

// FormatKB renders a byte count the way upload responses report it.
func FormatKB(bytes int64) string {
	return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
}

// finite maps NaN and infinities to nil so encoders emit null.
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
