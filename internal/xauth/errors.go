package xauth

import "errors"

var (
	// ErrTokenUnusable is returned by the interceptor when the current
	// token cannot be carried as a header value (spec §4.5).
	ErrTokenUnusable = errors.New("xauth: current token is not a valid header value")

	// ErrNoCredential is returned when a Provider cannot produce a token
	// at all (misconfiguration, unreadable key file, ...).
	ErrNoCredential = errors.New("xauth: credential provider failed")
)
