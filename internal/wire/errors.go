// Package wire implements the length-prefixed PostgreSQL message codec:
// a chunked stream buffer, the tuple-data (D message) codec, the COPY
// wire tracker, and the outgoing batch serializer.
package wire

import "fmt"

// Kind categorizes the ways a wire operation can fail. It mirrors the
// taxonomy the protocol layer needs to distinguish programmatically
// (callers branch on Kind, not on error text).
type Kind int

const (
	// KindTypeMismatch indicates an argument of the wrong shape, e.g. a
	// non-bytes, non-ABSENT attribute value.
	KindTypeMismatch Kind = iota
	// KindInvalidMessageSize indicates a framed-length field under 4, in
	// both the stream buffer and the COPY tracker.
	KindInvalidMessageSize
	// KindTruncatedHeader indicates a tuple payload shorter than its
	// attribute-count field.
	KindTruncatedHeader
	// KindTruncatedAttrSize indicates insufficient bytes remaining for an
	// attribute's length field.
	KindTruncatedAttrSize
	// KindInvalidAttrSize indicates a declared attribute length that
	// overruns the remaining input or wraps on addition.
	KindInvalidAttrSize
	// KindTrailingBytes indicates bytes left over after the declared
	// attribute count has been fully consumed.
	KindTrailingBytes
	// KindOverflow indicates an attribute size, message size, or
	// attribute count beyond the wire format's limits.
	KindOverflow
	// KindOutOfMemory indicates an allocation failure.
	KindOutOfMemory
	// KindUnknownMessageType indicates a type byte with no registry entry.
	KindUnknownMessageType
	// KindTerminated indicates reuse of a wire tracker past its terminal
	// state.
	KindTerminated
	// KindArityMismatch indicates a processor vector whose length does
	// not match the input vector.
	KindArityMismatch
)

func (k Kind) String() string {
	switch k {
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindInvalidMessageSize:
		return "InvalidMessageSize"
	case KindTruncatedHeader:
		return "TruncatedHeader"
	case KindTruncatedAttrSize:
		return "TruncatedAttrSize"
	case KindInvalidAttrSize:
		return "InvalidAttrSize"
	case KindTrailingBytes:
		return "TrailingBytes"
	case KindOverflow:
		return "Overflow"
	case KindOutOfMemory:
		return "OutOfMemory"
	case KindUnknownMessageType:
		return "UnknownMessageType"
	case KindTerminated:
		return "Terminated"
	case KindArityMismatch:
		return "ArityMismatch"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this package. Kind lets
// callers branch programmatically; Cause, when set, is unwrapped by
// errors.Is/errors.As the usual way.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("wire: %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("wire: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind and an empty
// Message, so callers can write errors.Is(err, wire.Terminated) against the
// sentinels below.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind && other.Message == ""
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Sentinels usable with errors.Is(err, wire.Terminated) and friends. They
// carry no Message, so Error.Is matches them on Kind alone; the Message of
// the error being tested is irrelevant.
var (
	TypeMismatch       = &Error{Kind: KindTypeMismatch}
	InvalidMessageSize = &Error{Kind: KindInvalidMessageSize}
	TruncatedHeader    = &Error{Kind: KindTruncatedHeader}
	TruncatedAttrSize  = &Error{Kind: KindTruncatedAttrSize}
	InvalidAttrSize    = &Error{Kind: KindInvalidAttrSize}
	TrailingBytes      = &Error{Kind: KindTrailingBytes}
	Overflow           = &Error{Kind: KindOverflow}
	OutOfMemory        = &Error{Kind: KindOutOfMemory}
	UnknownMessageType = &Error{Kind: KindUnknownMessageType}
	Terminated         = &Error{Kind: KindTerminated}
	ArityMismatch      = &Error{Kind: KindArityMismatch}
)
