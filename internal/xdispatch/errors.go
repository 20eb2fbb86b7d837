package xdispatch

import "errors"

// ErrClosed is returned by Register once the dispatcher has been closed.
var ErrClosed = errors.New("xdispatch: dispatcher is closed")
