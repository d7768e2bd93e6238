package dataset

// PageResult is one slice of a dataset's rows.
type PageResult struct {
	Rows    []Record
	Offset  int
	Limit   int
	Count   int
	Total   int
	HasMore bool
}

// Page returns rows [offset, offset+limit) clipped to the dataset. An offset
// past the end yields an empty page. Callers validate offset >= 0 and limit > 0.
// Bounds are compared without forming offset+limit, which may overflow.
func (d *Dataset) Page(offset, limit int) PageResult {
	more := offset < d.rows && limit < d.rows-offset
	end := d.rows
	if more {
		end = offset + limit
	}
	rows := d.Records(offset, end)
	return PageResult{
		Rows:    rows,
		Offset:  offset,
		Limit:   limit,
		Count:   len(rows),
		Total:   d.rows,
		HasMore: more,
	}
}
