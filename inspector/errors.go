package inspector

import (
	"errors"
	"fmt"
)

// Error taxonomy for inspection calls. Target discovery errors
// (TargetNotFound, MultipleCandidates) live in the browser package; these
// cover everything from selector resolution onward.
var (
	// ErrInvalidSelector means the browser rejected the selector syntax.
	ErrInvalidSelector = errors.New("invalid selector")

	// ErrElementNotFound means the selector is valid but matched nothing.
	ErrElementNotFound = errors.New("element not found")

	// ErrElementNotVisible means an element matched but has no layout
	// (display:none and friends).
	ErrElementNotVisible = errors.New("element not visible")

	// ErrDocumentUnavailable means the document root could not be fetched
	// after retry exhaustion.
	ErrDocumentUnavailable = errors.New("document unavailable")

	// ErrCaptureFailed means screenshot capture returned no data.
	ErrCaptureFailed = errors.New("screenshot capture failed")
)

// SelectorError wraps a taxonomy error with the selector that triggered it
// so callers can retry with a refined selector.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("%v: selector %q", e.Err, e.Selector)
}

func (e *SelectorError) Unwrap() error { return e.Err }

// coder is implemented by collaborator errors that carry their own stable
// code, such as the browser package's target discovery failures.
type coder interface {
	ErrorCode() string
}

// ErrorCode returns a stable machine-readable code for a taxonomy error,
// or "INTERNAL" for anything outside the taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSelector):
		return "INVALID_SELECTOR"
	case errors.Is(err, ErrElementNotFound):
		return "ELEMENT_NOT_FOUND"
	case errors.Is(err, ErrElementNotVisible):
		return "ELEMENT_NOT_VISIBLE"
	case errors.Is(err, ErrDocumentUnavailable):
		return "DOCUMENT_UNAVAILABLE"
	case errors.Is(err, ErrCaptureFailed):
		return "CAPTURE_FAILED"
	}
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return "INTERNAL"
}
