package topic

import (
	"errors"
	"fmt"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

var (
	// ErrNotReady is returned by Write/Flush when the writer is not in
	// the Ready state (e.g. still connecting, or draining).
	ErrNotReady = errors.New("topic: writer is not ready")

	// ErrClosed is returned by Write after Stop's drain has completed.
	ErrClosed = errors.New("topic: writer is closed")

	// ErrDrainTimeout is returned by Stop when the queue does not empty
	// within the given timeout.
	ErrDrainTimeout = errors.New("topic: drain timed out")
)

// StatusError wraps a non-success operation status from a topic
// management call (CreateTopic/DropTopic/DescribeConsumer).
type StatusError struct {
	Code   xwire.StatusCode
	Issues []xwire.Issue
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("topic: status %d (%d issues)", e.Code, len(e.Issues))
}

func statusError(st xwire.OperationStatus) error {
	if code, issues := st.Status(); code != xwire.StatusSuccess {
		return &StatusError{Code: code, Issues: issues}
	}
	return nil
}
