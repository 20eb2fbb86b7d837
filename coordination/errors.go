package coordination

import (
	"errors"
	"fmt"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

// StatusError wraps a non-success operation status from a
// node-management unary call (CreateNode/DropNode/DescribeNode) —
// these ride plain gRPC Invoke, outside the Coordination Session's
// stream, so they report failure this way rather than via StreamError.
type StatusError struct {
	Code   xwire.StatusCode
	Issues []xwire.Issue
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("coordination: status %d (%d issues)", e.Code, len(e.Issues))
}

var (
	// ErrSessionDetached is returned when an operation is attempted on a
	// session that is not in the Attached state.
	ErrSessionDetached = errors.New("coordination: session is not attached")

	// ErrSessionExpired is returned once the session's underlying stream
	// has transitioned to Expired — a fresh Session must be opened.
	ErrSessionExpired = errors.New("coordination: session expired")

	// ErrLeaseLost is returned by Lease.Release/Extend once the lease's
	// owning session has been lost or the lease was released elsewhere.
	ErrLeaseLost = errors.New("coordination: lease no longer held")

	// ErrUnknownResponse is returned by DescribeSemaphore when the
	// response envelope carries no DescribeSemaphore result. An inbound
	// frame whose request id has no registered sink is logged and
	// dropped instead (spec §4.10).
	ErrUnknownResponse = errors.New("coordination: response for unknown request id")
)
