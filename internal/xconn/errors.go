package xconn

import "errors"

var (
	// ErrMalformedURI is returned when a URI cannot be parsed into a scheme/host/port.
	ErrMalformedURI = errors.New("xconn: malformed endpoint uri")
	// ErrUnknownScheme is returned for any scheme other than grpc/grpcs.
	ErrUnknownScheme = errors.New("xconn: unknown scheme, want grpc or grpcs")
	// ErrCAUnreadable is returned when the configured CA bundle path cannot be read or parsed.
	ErrCAUnreadable = errors.New("xconn: ca certificate unreadable")
	// ErrClosed is returned by Connection once the pool has been Closed.
	ErrClosed = errors.New("xconn: pool closed")
)
