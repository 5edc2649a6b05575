// Package apierr classifies failures from the remote services into the
// three categories the control loop branches on.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is the failure classification.
type Kind int

const (
	// Transient covers network/transport failures and unexpected status
	// codes. Recovered by waiting and retrying the same phase.
	Transient Kind = iota

	// AuthRejected means the remote returned 401 or 403 for a
	// credential-bearing call. Recovered by re-authenticating, except
	// during authentication itself where it is fatal.
	AuthRejected

	// ProtocolViolation means the response shape broke the expected
	// contract, e.g. a login that returned no session cookie.
	ProtocolViolation
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Transient:
		return "transient"
	case AuthRejected:
		return "auth_rejected"
	case ProtocolViolation:
		return "protocol_violation"
	default:
		return "unknown"
	}
}

// Error is a classified failure from one of the remote services.
type Error struct {
	Kind       Kind
	Op         string // logical operation, e.g. "qbittorrent.login"
	StatusCode int    // HTTP status if one was received, else 0
	Message    string
	Err        error // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Transientf builds a Transient error from an underlying cause.
func Transientf(op string, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    Transient,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// FromStatus classifies an unexpected HTTP status code: 401/403 is
// AuthRejected, everything else is Transient. The code is carried for
// logging.
func FromStatus(op string, statusCode int) *Error {
	kind := Transient
	if statusCode == 401 || statusCode == 403 {
		kind = AuthRejected
	}
	return &Error{
		Kind:       kind,
		Op:         op,
		StatusCode: statusCode,
		Message:    "unexpected response status",
	}
}

// FromStatusTransient classifies any unexpected status as Transient,
// still carrying the code for logging. Used where the remote has no
// renewable session, so a 401 is not actionable by re-authenticating.
func FromStatusTransient(op string, statusCode int) *Error {
	return &Error{
		Kind:       Transient,
		Op:         op,
		StatusCode: statusCode,
		Message:    "unexpected response status",
	}
}

// Protocol builds a ProtocolViolation error.
func Protocol(op, message string) *Error {
	return &Error{
		Kind:    ProtocolViolation,
		Op:      op,
		Message: message,
	}
}

// KindOf extracts the classification from err. Errors that are not
// classified count as Transient: an unknown failure is something waiting
// might fix, never a reason to re-authenticate or die.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Transient
}

// IsAuthRejected reports whether err classifies as AuthRejected.
func IsAuthRejected(err error) bool {
	return err != nil && KindOf(err) == AuthRejected
}

// StatusOf returns the HTTP status carried by err, or 0 if there is none.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
