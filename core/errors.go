package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField    = errors.New("missing field")
	ErrDecode          = errors.New("decode failed")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrRoleNotFound    = errors.New("script role not found")
	ErrPatternNotFound = errors.New("pattern not found")
)

// ExtractionError carries enough of the scanned text to re-inspect the
// remote bundle by hand. It unwraps to one of the sentinel kinds above.
type ExtractionError struct {
	Kind    error
	Field   string
	Snippet string
	Err     error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func extractionError(kind error, field, snippet string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Field: field, Snippet: snippet, Err: err}
}

// Bundle text attached to errors is capped at this many bytes.
const snippetSize = 1000
