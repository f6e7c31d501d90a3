package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the failure kind reported to callable clients. The values match the
// canonical status names used by callable RPC clients.
type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeOutOfRange         Code = "OUT_OF_RANGE"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeResourceExhausted  Code = "RESOURCE_EXHAUSTED"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
)

// HTTPStatus maps a code to the HTTP status of the callable response.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument, CodeFailedPrecondition, CodeOutOfRange:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed failure carrying the code surfaced to the client.
// Message is safe to show to users; Err is the internal cause and is never
// sent over the wire.
type Error struct {
	Op      string         // operation that failed, e.g. "marketplace.CreateOrder"
	Code    Code           // failure kind
	Message string         // client-facing message
	Details map[string]any // conflicting values, e.g. availableStock
	Err     error          // underlying error for wrapping
}

// Error returns the string representation of the error
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail attaches a key/value pair to the error details and returns e.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an Error with a formatted client message.
func New(op string, code Code, format string, args ...any) *Error {
	return &Error{Op: op, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected failure. The cause stays server side.
func Internal(op string, err error) *Error {
	return &Error{Op: op, Code: CodeInternal, Message: "internal error", Err: err}
}

func InvalidArgument(op, format string, args ...any) *Error {
	return New(op, CodeInvalidArgument, format, args...)
}

func FailedPrecondition(op, format string, args ...any) *Error {
	return New(op, CodeFailedPrecondition, format, args...)
}

func OutOfRange(op, format string, args ...any) *Error {
	return New(op, CodeOutOfRange, format, args...)
}

func NotFound(op, format string, args ...any) *Error {
	return New(op, CodeNotFound, format, args...)
}

func PermissionDenied(op, format string, args ...any) *Error {
	return New(op, CodePermissionDenied, format, args...)
}

func Unauthenticated(op, format string, args ...any) *Error {
	return New(op, CodeUnauthenticated, format, args...)
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

func ResourceExhausted(op, format string, args ...any) *Error {
	return New(op, CodeResourceExhausted, format, args...)
}

func Unavailable(op string, err error) *Error {
	return &Error{Op: op, Code: CodeUnavailable, Message: "service unavailable, try again", Err: err}
}
