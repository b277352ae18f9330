package apierr

import (
	"errors"
	"fmt"
	"net/http"

	sentinel "github.com/chaptered/core/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From classifies a generic error into the client-visible error taxonomy. Handlers call this once
// at the HTTP boundary instead of hand-rolling status codes; an error that is already an
// *Error passes through unchanged.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, sentinel.ErrUnauthorized):
		return New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, sentinel.ErrInvalidArgument):
		return New(http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, sentinel.ErrConflict):
		return New(http.StatusConflict, "conflict", err)
	case errors.Is(err, sentinel.ErrQuotaExceeded):
		return New(http.StatusTooManyRequests, "quota_exceeded", err)
	case errors.Is(err, sentinel.ErrUpstream):
		return New(http.StatusBadGateway, "upstream", err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
