package ydbgo

import "github.com/ydbgo/ydbgo/internal/xwire"

// classifyStatus maps a wire status code to its RetryClass (spec §7).
// This is the single source of truth Kind's doc comment refers to:
// adding a StatusCode in internal/xwire/messages.go means adding its
// case here too.
func classifyStatus(code xwire.StatusCode) RetryClass {
	switch code {
	case xwire.StatusBadSession:
		return RetryClassBadSession
	case xwire.StatusSessionExpired:
		return RetryClassSessionExpired
	case xwire.StatusUnavailable:
		return RetryClassUnavailable
	case xwire.StatusOverloaded:
		return RetryClassOverloaded
	case xwire.StatusAborted:
		return RetryClassAborted
	case xwire.StatusUndetermined:
		return RetryClassUndetermined
	case xwire.StatusBadRequest:
		return RetryClassBadRequest
	case xwire.StatusSchemeError:
		return RetryClassSchemeError
	case xwire.StatusPreconditionFailed:
		return RetryClassPreconditionFailed
	case xwire.StatusUnauthorized:
		return RetryClassUnauthorized
	default:
		return RetryClassNone
	}
}
