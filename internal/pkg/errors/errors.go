package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is a generic sentinel for state conflicts (e.g. a resource already mid-stage).
	ErrConflict = errors.New("conflict")
	// ErrQuotaExceeded is a generic sentinel for exhausted upstream quota.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrUpstream is a generic sentinel for failures in an external collaborator
	// (YouTube Data API, subtitle subprocess, LLM provider) after retries are exhausted.
	ErrUpstream = errors.New("upstream failure")
	// ErrEnvironment signals a missing local dependency (e.g. the yt-dlp binary is not
	// on PATH) rather than a bad request or an upstream failure; always fatal.
	ErrEnvironment = errors.New("environment error")
)
