package dataset

// dtype.go infers a column type from raw CSV cells.
//
// Inference runs an ordered list of typed predicates. The first predicate that
// accepts every non-null cell of a column decides the column type; text is the
// fallback. Integer comes before boolean so 0/1 columns stay numeric.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DType is the inferred semantic type of a column.
type DType string

const (
	Integer  DType = "integer"
	Float    DType = "float"
	Boolean  DType = "boolean"
	Datetime DType = "datetime"
	Text     DType = "text"
)

// Numeric reports whether the type carries numbers.
func (t DType) Numeric() bool {
	return t == Integer || t == Float
}

// numericRegex validates plain decimal and scientific notation numbers.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// nullTokens are the cell spellings read as missing values.
var nullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNullToken reports whether a raw cell is read as a missing value.
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// dateLayouts are tried in order; four-digit years only so that
// ambiguous short dates stay text.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

type predicate struct {
	dtype DType
	parse func(string) (any, bool)
}

var predicates = []predicate{
	{dtype: Integer, parse: parseInt},
	{dtype: Float, parse: parseFloat},
	{dtype: Boolean, parse: parseBool},
	{dtype: Datetime, parse: parseTime},
}

func parseInt(s string) (any, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return i, true
}

func parseFloat(s string) (any, bool) {
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "inf", "infinity":
		if strings.HasPrefix(s, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	if !numericRegex.MatchString(s) {
		return nil, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return f, true
}

// parseBool accepts true/false, yes/no, t/f and y/n in any case.
func parseBool(s string) (any, bool) {
	switch strings.ToLower(s) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	default:
		return nil, false
	}
}

func parseTime(s string) (any, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return nil, false
}

// Infer picks the column type for raw cells and returns the typed cells.
// Null cells come back as nil. A column with no values at all is Float.
func Infer(raw []string) (DType, []any) {
	cells := make([]any, len(raw))
	trimmed := make([]string, len(raw))
	nonNull := 0
	for i, s := range raw {
		if IsNullToken(s) {
			continue
		}
		trimmed[i] = strings.TrimSpace(s)
		nonNull++
	}
	if nonNull == 0 {
		return Float, cells
	}

	for _, p := range predicates {
		if parseAll(p, raw, trimmed, cells) {
			return p.dtype, cells
		}
	}

	for i, s := range raw {
		if IsNullToken(s) {
			cells[i] = nil
			continue
		}
		cells[i] = s
	}
	return Text, cells
}

// parseAll fills cells when every non-null value parses.
func parseAll(p predicate, raw, trimmed []string, cells []any) bool {
	for i, s := range raw {
		if IsNullToken(s) {
			cells[i] = nil
			continue
		}
		v, ok := p.parse(trimmed[i])
		if !ok {
			return false
		}
		cells[i] = v
	}
	return true
}
