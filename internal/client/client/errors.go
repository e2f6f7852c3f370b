package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

// StatusError is a non-2xx answer from the backend. It unwraps to one of the
// sentinel errors above so callers can branch with errors.Is.
type StatusError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func statusError(code int, msg string) error {
	var kind error
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = ErrUnauthorized
	case code == http.StatusNotFound:
		kind = ErrNotFound
	case code == http.StatusConflict:
		kind = ErrConflict
	case code >= http.StatusInternalServerError:
		kind = ErrUnavailable
	default:
		kind = ErrValidation
	}
	return &StatusError{StatusCode: code, Message: msg, kind: kind}
}
