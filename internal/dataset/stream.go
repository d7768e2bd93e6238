package dataset

// stream.go wraps upload readers before CSV parsing:
//
//   - limitReader: counts bytes and fails with ErrTooLarge past the limit
//   - BOM handling: a leading byte order mark selects the decoding (UTF-8 or UTF-16)
//   - utf8Sanitizer: optionally replaces invalid UTF-8 bytes with '?'
//
// Use wrapInput to apply them in the correct order.

import (
	"errors"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrTooLarge is returned when the input exceeds the configured byte limit.
var ErrTooLarge = errors.New("input exceeds size limit")

// limitReader counts raw bytes read and refuses to go past max.
// A max of zero or less disables the limit.
type limitReader struct {
	reader    io.Reader
	max       int64
	BytesRead int64
}

func (r *limitReader) Read(p []byte) (int, error) {
	if r.max > 0 {
		remaining := r.max + 1 - r.BytesRead
		if remaining <= 0 {
			return 0, ErrTooLarge
		}
		if int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.max > 0 && r.BytesRead > r.max {
		return n, ErrTooLarge
	}
	return n, err
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' on the fly.
// The replacement is one byte wide so the stream never grows.
type utf8Sanitizer struct {
	reader io.Reader

	// leftover bytes of a multi-byte sequence split across reads
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isAllASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to emit.
// Unless atEOF, a trailing incomplete sequence is held back for the next read.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && isIncompleteRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// isIncompleteRune reports whether data is the valid start of a multi-byte
// sequence that is cut short.
func isIncompleteRune(data []byte) bool {
	if len(data) == 0 || len(data) >= utf8.UTFMax {
		return false
	}
	return !utf8.FullRune(data)
}

// wrapInput applies the limit first so it counts raw upload bytes,
// then BOM detection, then optional sanitization.
func wrapInput(r io.Reader, maxBytes int64, sanitize bool) (io.Reader, *limitReader) {
	limited := &limitReader{reader: r, max: maxBytes}
	var out io.Reader = transform.NewReader(limited, unicode.BOMOverride(transform.Nop))
	if sanitize {
		out = newUTF8Sanitizer(out)
	}
	return out, limited
}
