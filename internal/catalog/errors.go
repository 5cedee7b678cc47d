package catalog

import (
	"errors"
	"fmt"

	"github.com/uniqmaker/api/internal/domain"
)

var (
	// ErrNoSnapshot indicates the feed needed by the transform has never been
	// fetched successfully, so there is no catalog to serve.
	ErrNoSnapshot = errors.New("catalog: no snapshot available")
	// ErrNotFound indicates the requested master code is absent from the feed.
	ErrNotFound = errors.New("catalog: reference not found")
)

// FormatError reports a snapshot payload that could not be parsed as the
// expected JSON shape. It aborts the whole request; per-field problems inside
// a well-formed payload never raise it.
type FormatError struct {
	Feed domain.FeedKey
	Err  error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("catalog: %s snapshot has invalid format: %v", e.Feed, e.Err)
}

// Unwrap exposes the underlying decode error.
func (e *FormatError) Unwrap() error { return e.Err }

// IsFormatError reports whether err wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
