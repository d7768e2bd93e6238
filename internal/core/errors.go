package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/csvviz/internal/dataset"
)

// Error kinds. Service methods return errors that match exactly one of
// these under errors.Is; the transport layer maps them to statuses.
var (
	ErrNoFile            = errors.New("no file provided")
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrPayloadTooLarge   = errors.New("file too large")
	ErrParse             = errors.New("error processing file")
	ErrNotFound          = dataset.ErrNotFound
	ErrValidation        = errors.New("invalid request")
	ErrUnknownColumn     = errors.New("unknown column")
)

// kindError tags err with a kind while keeping err's own message.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string   { return e.err.Error() }
func (e *kindError) Unwrap() []error { return []error{e.kind, e.err} }

// withKind tags err so that errors.Is(result, kind) holds and errors.As
// still reaches the original error.
func withKind(kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// kindf builds a tagged error from a format string.
func kindf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

// domainKinds are the kinds whose messages are safe to show clients.
var domainKinds = []error{
	ErrNoFile,
	ErrUnsupportedFormat,
	ErrPayloadTooLarge,
	ErrParse,
	ErrNotFound,
	ErrValidation,
	ErrUnknownColumn,
	ErrTooManyUploads,
}

// IsDomainError reports whether err carries one of the service's error kinds.
func IsDomainError(err error) bool {
	for _, k := range domainKinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
