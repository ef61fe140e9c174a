package tunnel

import "fmt"

// conflictError signals that both the local config and the peer integration
// supply a tunnel token. The pass is blocked until one of them is removed.
type conflictError struct{}

func (conflictError) Error() string {
	return "tunnel-token is provided by both the config and integration"
}

// IsConflict reports whether err indicates conflicting desired-state sources.
func IsConflict(err error) bool {
	_, ok := err.(conflictError)
	return ok
}

// invalidRecordError signals malformed or unresolvable secret/integration
// data. The message carries the provenance (config or link id) so the
// operator knows what to fix.
type invalidRecordError struct {
	msg   string
	cause error
}

func (e invalidRecordError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e invalidRecordError) Unwrap() error { return e.cause }

// errInvalidRecord constructs an invalidRecordError with provenance.
func errInvalidRecord(cause error, format string, args ...any) error {
	return invalidRecordError{msg: fmt.Sprintf(format, args...), cause: cause}
}

// IsInvalidRecord reports whether err indicates invalid desired-state input.
func IsInvalidRecord(err error) bool {
	_, ok := err.(invalidRecordError)
	return ok
}

// limitExceededError signals that a link identifier is beyond the supported
// ceiling. This is an environment invariant break, not an operator error, and
// is never converted to a blocked status.
type limitExceededError struct{ linkID int }

func (e limitExceededError) Error() string {
	return fmt.Sprintf("link id %d exceeds maximum allowed value", e.linkID)
}

// IsLimitExceeded reports whether err indicates identifier space exhaustion.
func IsLimitExceeded(err error) bool {
	_, ok := err.(limitExceededError)
	return ok
}
