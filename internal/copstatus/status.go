// Package copstatus provides the structured error type used throughout the
// coprocessor: an error taxonomy (Kind) plus operation, message, and
// wrapped cause, with errors.Is/As support so callers can branch on Kind
// without string matching.
package copstatus

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Kind classifies a coprocessor error by the taxonomy it must surface
// across Open and Execute.
type Kind string

const (
	// OK is never carried by an *Error; it exists so Kind has a defined
	// zero-adjacent success value for callers that store a Kind alongside
	// a nil error.
	OK Kind = "OK"

	BadSchema          Kind = "BAD_SCHEMA"
	BadArity           Kind = "BAD_ARITY"
	TypeMismatch       Kind = "TYPE_MISMATCH"
	Corrupt            Kind = "CORRUPT"
	VersionSkew        Kind = "VERSION_SKEW"
	ArithmeticOverflow Kind = "ARITHMETIC_OVERFLOW"
	BadRequest         Kind = "BAD_REQUEST"
	Cancelled          Kind = "CANCELLED"
	Internal           Kind = "INTERNAL"
)

// Error is the structured error type returned by every coprocessor
// operation. Op names the operation that failed (e.g. "Open",
// "RecordEncoder.Encode"); Cause, when present, is the lower-level error
// that triggered this one.
type Error struct {
	Op      string
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("coprocessor: %s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("coprocessor: %s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers
// can write errors.Is(err, &copstatus.Error{Kind: copstatus.Corrupt}).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New creates an *Error with no wrapped cause.
func New(op string, kind Kind, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// Newf creates an *Error with a formatted message.
func Newf(op string, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error that wraps cause.
func Wrap(op string, kind Kind, message string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from an error chain, returning Internal if err
// is not a *Error (it is still a fault, just an unclassified one) and OK
// if err is nil.
func KindOf(err error) Kind {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// ToGRPCCode maps a Kind onto the nearest grpc/codes.Code, for collaborators
// that front the coprocessor with a gRPC service (out of scope here, per
// §1, but the mapping is cheap to carry so that boundary doesn't need its
// own taxonomy).
func ToGRPCCode(k Kind) codes.Code {
	switch k {
	case OK:
		return codes.OK
	case BadSchema, BadArity, TypeMismatch, BadRequest:
		return codes.InvalidArgument
	case Corrupt:
		return codes.DataLoss
	case VersionSkew:
		return codes.FailedPrecondition
	case ArithmeticOverflow:
		return codes.OutOfRange
	case Cancelled:
		return codes.Canceled
	default:
		return codes.Internal
	}
}
