package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReadOptions controls CSV parsing.
type ReadOptions struct {
	// MaxBytes caps the raw input size; 0 disables the cap.
	MaxBytes int64
	// SanitizeUTF8 replaces invalid UTF-8 bytes instead of failing.
	SanitizeUTF8 bool
}

// ParseError describes content that is not valid delimited text.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Read parses CSV content into a dataset. The first record is the header.
// The returned dataset has no ID yet; Store.Put assigns one.
func Read(r io.Reader, opt ReadOptions) (*Dataset, error) {
	in, counter := wrapInput(r, opt.MaxBytes, opt.SanitizeUTF8)

	data, err := io.ReadAll(in)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("read input: %w", err)
	}

	if !opt.SanitizeUTF8 && !utf8.Valid(data) {
		return nil, &ParseError{Msg: fmt.Sprintf("invalid UTF-8 at byte offset %d", invalidOffset(data))}
	}

	header, rows, err := readRecords(data)
	if err != nil {
		return nil, err
	}

	names := normalizeHeader(header)
	columns := make([]*Column, len(names))
	raw := make([]string, len(rows))
	for j, name := range names {
		for i, row := range rows {
			if j < len(row) {
				raw[i] = row[j]
			} else {
				raw[i] = ""
			}
		}
		dtype, cells := Infer(raw)
		columns[j] = &Column{Name: name, Type: dtype, Cells: cells}
	}

	ds, err := New(columns)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	ds.rows = len(rows)
	ds.Size = counter.BytesRead
	return ds, nil
}

// readRecords splits data into header and data rows. Rows with more fields
// than the header are rejected; shorter rows are padded by the caller.
func readRecords(data []byte) ([]string, [][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, &ParseError{Msg: "no columns to parse from file"}
		}
		return nil, nil, csvParseError(err)
	}
	if len(header) == 0 || (len(header) == 1 && strings.TrimSpace(header[0]) == "") {
		return nil, nil, &ParseError{Line: 1, Msg: "no columns to parse from file"}
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, csvParseError(err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, nil, &ParseError{
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, saw %d", len(header), len(rec)),
			}
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func csvParseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Msg: pe.Err.Error()}
	}
	return &ParseError{Msg: err.Error()}
}

// normalizeHeader names blank columns "Unnamed: i" and suffixes duplicates
// with ".1", ".2" and so on.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for taken[name] {
			seen[base]++
			name = base + "." + strconv.Itoa(seen[base])
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

func invalidOffset(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}
