package api

import (
	"errors"
	"fmt"
)

// Kind enumerates the error taxonomy from the governance spec's error
// handling design: each one maps to a specific trigger and propagation
// policy documented on the constants below.
type Kind int

const (
	// KindInvalidArgument: null/blank id, version, fqsid, or other bad
	// parameters. Never retried.
	KindInvalidArgument Kind = iota
	// KindLifecycleError: container start/stop failure, reload target
	// missing. Propagates to the caller of install/reload; other modules
	// are unaffected.
	KindLifecycleError
	// KindServiceNotFound: unknown FQSID or no interface implementation.
	KindServiceNotFound
	// KindServiceUnavailable: status not ACTIVE, no ready non-dying
	// instance, or container inactive.
	KindServiceUnavailable
	// KindPermissionDenied: PermissionService denied the call. Audited (if
	// requested) before propagating.
	KindPermissionDenied
	// KindRejected: bulkhead admission timed out.
	KindRejected
	// KindTimeout: execution exceeded the per-call deadline.
	KindTimeout
	// KindInvocationError: the user method itself raised.
	KindInvocationError
	// KindInterrupted: worker cancellation or manager shutdown cut the
	// call short.
	KindInterrupted
	// KindSecurityViolation: a SecurityVerifier rejected the module at
	// install time.
	KindSecurityViolation
	// KindResourceExhausted: the dying queue is full; caller may retry
	// later.
	KindResourceExhausted
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindLifecycleError:
		return "LIFECYCLE_ERROR"
	case KindServiceNotFound:
		return "SERVICE_NOT_FOUND"
	case KindServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case KindPermissionDenied:
		return "PERMISSION_DENIED"
	case KindRejected:
		return "REJECTED"
	case KindTimeout:
		return "TIMEOUT"
	case KindInvocationError:
		return "INVOCATION_ERROR"
	case KindInterrupted:
		return "INTERRUPTED"
	case KindSecurityViolation:
		return "SECURITY_VIOLATION"
	case KindResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// GovernanceError is the single error type carrying a Kind plus a wrapped
// cause, so callers can both pattern-match on Kind and unwrap the original
// failure with errors.Is/errors.As.
type GovernanceError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *GovernanceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GovernanceError) Unwrap() error { return e.Cause }

// NewError constructs a GovernanceError of the given kind.
func NewError(kind Kind, message string, cause error) *GovernanceError {
	return &GovernanceError{Kind: kind, Message: message, Cause: cause}
}

// IsKind reports whether err (or something it wraps) is a GovernanceError
// of the given Kind.
func IsKind(err error, kind Kind) bool {
	var ge *GovernanceError
	if errors.As(err, &ge) {
		return ge.Kind == kind
	}
	return false
}

// Convenience constructors mirroring the spec's error table.

func ErrInvalidArgument(message string) error {
	return NewError(KindInvalidArgument, message, nil)
}

func ErrLifecycle(message string, cause error) error {
	return NewError(KindLifecycleError, message, cause)
}

func ErrServiceNotFound(fqsid FQSID) error {
	return NewError(KindServiceNotFound, fmt.Sprintf("service %s not found", fqsid), nil)
}

func ErrServiceUnavailable(moduleID ModuleId) error {
	return NewError(KindServiceUnavailable, fmt.Sprintf("module %s unavailable", moduleID), nil)
}

func ErrPermissionDenied(caller ModuleId, permission string) error {
	return NewError(KindPermissionDenied, fmt.Sprintf("%s denied permission %s", caller, permission), nil)
}

func ErrRejected(reason string) error {
	return NewError(KindRejected, reason, nil)
}

func ErrTimeout(fqsid FQSID) error {
	return NewError(KindTimeout, fmt.Sprintf("invocation of %s timed out", fqsid), nil)
}

func ErrInvocation(cause error) error {
	return NewError(KindInvocationError, "binding raised an error", cause)
}

func ErrInterrupted(message string) error {
	return NewError(KindInterrupted, message, nil)
}

func ErrSecurityViolation(moduleID ModuleId, cause error) error {
	return NewError(KindSecurityViolation, fmt.Sprintf("module %s rejected by security verifier", moduleID), cause)
}

func ErrResourceExhausted(moduleID ModuleId) error {
	return NewError(KindResourceExhausted, fmt.Sprintf("module %s dying queue is full", moduleID), nil)
}
