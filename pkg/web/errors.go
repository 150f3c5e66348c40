package web

import (
	"errors"
	"fmt"
)

// Kind classifies a failure produced or observed while serving a request.
type Kind int

const (
	// KindInternal is the fallback for errors that carry no kind.
	KindInternal Kind = iota
	// KindNotFound means no route matched the request.
	KindNotFound
	// KindExtract means a handler argument could not be extracted from the body.
	KindExtract
	// KindIO is a transport failure.
	KindIO
	// KindProtocol is a malformed HTTP message.
	KindProtocol
	// KindUpgrade means a protocol upgrade could not take over the connection.
	KindUpgrade
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindExtract:
		return "extract"
	case KindIO:
		return "io"
	case KindProtocol:
		return "protocol"
	case KindUpgrade:
		return "upgrade"
	default:
		return "internal"
	}
}

// Error is a typed failure returned by handlers and the components around them.
//
// Two errors compare equal under errors.Is when their kinds match, so sentinels
// such as ErrRouteNotFound can be matched regardless of message or cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NotFoundClass reports whether the error is answered as "not found".
// Route misses and extraction failures share this class.
func (e *Error) NotFoundClass() bool {
	return e.Kind == KindNotFound || e.Kind == KindExtract
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Cause: cause}
}

// NewError creates an error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	// ErrRouteNotFound is returned by the router when nothing matches.
	ErrRouteNotFound = NewError(KindNotFound, "route not found")

	// ErrBodyConsumed is returned when a request body is split a second time.
	ErrBodyConsumed = NewError(KindExtract, "request body already consumed")

	// ErrUpgradeUnavailable is returned when a connection cannot be handed over.
	ErrUpgradeUnavailable = NewError(KindUpgrade, "connection upgrade unavailable")
)
