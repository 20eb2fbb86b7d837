package xsession

import "errors"

var (
	// ErrPoolClosed is returned by Acquire once the pool has been shut down.
	ErrPoolClosed = errors.New("xsession: pool is closed")

	// ErrCreateFailed wraps a failure from the Create callback.
	ErrCreateFailed = errors.New("xsession: session creation failed")
)
