package model

import (
	"github.com/pkg/errors"
)

// Outcome taxonomy shared by sources, fetchers and the runner. Everything but
// ErrInvalidRequest is data: it ends one load and is recorded as a failed
// measurement.
var (
	ErrNotFound       = errors.New("not found")
	ErrIO             = errors.New("io error")
	ErrCancelled      = errors.New("cancelled")
	ErrInvalidRequest = errors.New("invalid request")
)

// Expected reports whether err is an outcome a batch absorbs rather than a
// caller fault.
func Expected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrIO) || errors.Is(err, ErrCancelled)
}

// Reason maps err onto its taxonomy name for logs and metric labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrIO):
		return "io_error"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "error"
	}
}
