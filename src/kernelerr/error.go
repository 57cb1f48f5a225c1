// Package kernelerr defines the small set of error codes the kernel core
// returns. Every blocking or non-blocking kernel operation reports failure
// through one of these sentinels rather than a panic or a Go error chain;
// the one exception is a nil argument, which is a programming error: it
// is not checked for and panics rather than being returned.
package kernelerr

import "fmt"

// Error is a small negative status code, the Go-side equivalent of
// RT-Thread's rt_err_t. The zero value is OK.
type Error int32

const (
	// OK means the operation completed successfully.
	OK Error = 0
	// ERROR is the generic failure: wrong state for the call, an object
	// being torn down while a thread waited on it, or ownership violated
	// (e.g. releasing a mutex you don't hold).
	ERROR Error = -1
	// TIMEOUT means a blocking call's wait window elapsed before the
	// resource became available.
	TIMEOUT Error = -2
	// FULL means a bounded buffer (mailbox, message queue) has no free
	// slot for a non-blocking send.
	FULL Error = -3
	// EMPTY means a bounded buffer has nothing to hand back to a
	// non-blocking receive.
	EMPTY Error = -4
	// InvalidState means the call's precondition on an object's lifecycle
	// state was not met (e.g. suspending a thread that is not READY).
	InvalidState Error = -5
)

var text = map[Error]string{
	OK:           "ok",
	ERROR:        "error",
	TIMEOUT:      "timeout",
	FULL:         "full",
	EMPTY:        "empty",
	InvalidState: "invalid state",
}

// Error satisfies the standard error interface so callers that want to log
// or wrap a kernel error can treat it as one, while callers that only care
// about control flow keep comparing against the sentinel constants.
func (e Error) Error() string {
	if s, ok := text[e]; ok {
		return s
	}
	return fmt.Sprintf("kernel error %d", int32(e))
}

// OK reports whether the sentinel value is the successful one. Convenience
// for the `if err := ...; err.OK() { ... }` shape; the core itself
// compares against the sentinel constants instead.
func (e Error) OK() bool {
	return e == OK
}
