package scheme

import (
	"fmt"

	"github.com/ydbgo/ydbgo/internal/xwire"
)

// StatusError wraps a non-success operation status from a scheme call.
type StatusError struct {
	Code   xwire.StatusCode
	Issues []xwire.Issue
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scheme: status %d (%d issues)", e.Code, len(e.Issues))
}

func statusError(st xwire.OperationStatus) error {
	if code, issues := st.Status(); code != xwire.StatusSuccess {
		return &StatusError{Code: code, Issues: issues}
	}
	return nil
}
