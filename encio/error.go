package encio

import (
	"errors"
	"fmt"
	"io"
	"runtime"
)

// Errors come in two wrappers. IOError means the bytes or the io.Reader/io.Writer behind them are bad:
// a queue element or stream value that fails this way should be skipped or the stream abandoned.
// Error means a schema or value cannot be used the way it was asked to be, and retrying with the
// same inputs fails the same way. Each wraps one of the kinds below, so callers only test kinds:
//
//	switch {
//	case errors.Is(err, encio.ErrMalformed):
//		// skip the element
//	case errors.Is(err, encio.ErrIncompatible):
//		// the writer and reader schemas cannot be reconciled
//	}
//
// Panics are kept for misuse of the API.
var (
	// ErrMalformed is returned when read data cannot be the encoding of any value of its schema.
	ErrMalformed = errors.New("malformed")

	// ErrTruncated is returned when data ends part way through a value.
	// It matches both ErrMalformed and io.ErrUnexpectedEOF.
	ErrTruncated = fmt.Errorf("%w: %w", ErrMalformed, io.ErrUnexpectedEOF)

	// ErrIncompatible is returned when a writer schema and a reader schema cannot be reconciled,
	// either while planning the resolution or while decoding a value that takes an unresolvable branch.
	ErrIncompatible = errors.New("incompatible schemas")

	// ErrBadType is returned when a value, or a default value, does not match its schema.
	ErrBadType = errors.New("bad type")

	// ErrInvalidSchema is returned when a schema description cannot be parsed into a schema.
	ErrInvalidSchema = errors.New("invalid schema")

	errBadReader = errors.New("io.Reader read more than asked")
	errBadWriter = errors.New("io.Writer wrote more than asked")
)

// NewIOError returns an IOError wrapping err.
// The type of rw, the reader or writer at fault, prefixes message when rw is not nil.
// An empty message names the function depth frames above the caller instead.
func NewIOError(err error, rw interface{}, message string, depth int) error {
	if err == nil {
		return NewError(errors.New("nil error"), "wrapping an IOError", "encio.NewIOError")
	}
	if message == "" {
		message = "in " + GetCaller(depth+1)
	}
	if rw != nil {
		message = fmt.Sprintf("%T: %v", rw, message)
	}

	return IOError{
		Err:     err,
		Message: message,
	}
}

// IOError reports bad data or a failing io.Reader/io.Writer.
type IOError struct {
	Err     error
	Message string
}

func (e IOError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the wrapped error kind.
func (e IOError) Unwrap() error {
	return e.Err
}

// NewError returns an Error wrapping err, raised by caller.
// An empty caller names the function calling NewError.
func NewError(err error, message string, caller string) error {
	if caller == "" {
		caller = GetCaller(1)
	}

	return Error{
		Err:     err,
		Message: message,
		Caller:  caller,
	}
}

// Error is returned when a schema or value cannot be used the way it was asked to be.
type Error struct {
	Err     error
	Message string
	Caller  string
}

func (e Error) Error() string {
	msg := e.Err.Error()
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	if e.Caller == "" {
		return msg
	}
	return e.Caller + ": " + msg
}

// Unwrap returns the wrapped error kind.
func (e Error) Unwrap() error {
	return e.Err
}

// GetCaller names the function skip frames above its caller; 0 is the caller itself.
func GetCaller(skip int) string {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(2+skip, pcs)
	if n != 1 {
		return "Unknown Function"
	}

	frames := runtime.CallersFrames(pcs)
	frame, _ := frames.Next()
	return frame.Function
}
