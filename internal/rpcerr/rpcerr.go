// Package rpcerr defines the error-kind taxonomy shared by the dispatcher,
// handlers, and facades. Errors never leave the dispatcher as Go errors —
// they are always converted to an error-bearing reply — but the kind
// travels with them so that conversion can pick the right reply shape.
package rpcerr

import "fmt"

// Kind classifies why a dispatch failed.
type Kind int

const (
	// NotLeader means the local instance is not the active master.
	NotLeader Kind = iota + 1
	// Malformed means the typed request header failed to decode.
	Malformed
	// Unsupported means the operation code is outside the closed set.
	Unsupported
	// ServiceUnavailable means a required sub-service was not initialized.
	ServiceUnavailable
	// RetryConflict means a retried request cannot be safely replayed.
	RetryConflict
	// FacadeError wraps an opaque error bubbling from the namespace,
	// worker, or mount facades.
	FacadeError
)

// String returns the wire-stable label for the kind.
func (k Kind) String() string {
	switch k {
	case NotLeader:
		return "NotLeader"
	case Malformed:
		return "Malformed"
	case Unsupported:
		return "Unsupported"
	case ServiceUnavailable:
		return "ServiceUnavailable"
	case RetryConflict:
		return "RetryConflict"
	case FacadeError:
		return "FacadeError"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// MasterError is the typed error carried through the dispatch path.
type MasterError struct {
	Kind    Kind
	Message string
	// wrapped is the underlying error for FacadeError, preserved for
	// errors.Unwrap/errors.Is chains without leaking into the reply.
	wrapped error
}

// Error implements the error interface.
func (e *MasterError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying facade error, if any.
func (e *MasterError) Unwrap() error {
	return e.wrapped
}

// New creates a MasterError of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *MasterError {
	return &MasterError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a FacadeError MasterError around an opaque underlying error.
func Wrap(err error) *MasterError {
	if err == nil {
		return nil
	}
	return &MasterError{Kind: FacadeError, Message: err.Error(), wrapped: err}
}

// NotLeaderErr builds a NotLeader error naming the code and remote host.
func NotLeaderErr(code string, remoteHost string) *MasterError {
	if remoteHost == "" {
		return New(NotLeader, "instance is not the active master (code %s)", code)
	}
	return New(NotLeader, "instance is not the active master (code %s, client %s)", code, remoteHost)
}

// MalformedErr builds a Malformed error for a header decode failure.
func MalformedErr(code string, cause error) *MasterError {
	return New(Malformed, "failed to decode header for %s: %v", code, cause)
}

// UnsupportedErr builds an Unsupported error for an unrecognized code.
func UnsupportedErr(rawCode uint16) *MasterError {
	return New(Unsupported, "unrecognized operation code %d", rawCode)
}

// ServiceUnavailableErr builds a ServiceUnavailable error for an absent
// sub-service.
func ServiceUnavailableErr(service string) *MasterError {
	return New(ServiceUnavailable, "%s is not initialized", service)
}

// RetryConflictErr builds a RetryConflict error for a non-replayable retry.
func RetryConflictErr(operation, subject string) *MasterError {
	return New(RetryConflict, "%s %s repeat request", operation, subject)
}

// As reports whether err is a *MasterError and, if so, returns it.
func As(err error) (*MasterError, bool) {
	me, ok := err.(*MasterError)
	return me, ok
}
