// Package errors provides structured error types for agentgraph's outer
// surfaces: the CLI, configuration loading and file input.
//
// The core packages (topology, analysis, layout, transition) never return
// errors; malformed data is skipped and counted instead. Everything that
// touches user input reports failures through this package so callers can
// branch on a machine-readable code and show a clean message.
//
// # Error Codes
//
//   - INVALID_*: input, format, filter and configuration validation failures
//   - *_NOT_FOUND: missing files
//   - INTERNAL_ERROR: unexpected failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFilter, "filter must be boolean: %s", src)
//	if errors.Is(err, errors.ErrCodeInvalidFilter) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "failed to decode %s", path)
package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// Code is a machine-readable failure category. Codes double as the process
// exit status family reported by the CLI.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidFilter Code = "INVALID_FILTER"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidNodeID Code = "INVALID_NODE_ID"
	ErrCodeInvalidScope  Code = "INVALID_SCOPE"

	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// exitStatus groups codes the way shells expect: 2 for bad usage or input,
// 3 for missing files, 4 for unavailable features, 1 for everything else.
var exitStatus = map[Code]int{
	ErrCodeInvalidInput:  2,
	ErrCodeInvalidFormat: 2,
	ErrCodeInvalidFilter: 2,
	ErrCodeInvalidConfig: 2,
	ErrCodeInvalidNodeID: 2,
	ErrCodeInvalidScope:  2,
	ErrCodeFileNotFound:  3,
	ErrCodeUnsupported:   4,
}

// ExitCode returns the status a command should exit with for err. Nil maps
// to 0 and uncoded errors to 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if n, ok := exitStatus[GetCode(err)]; ok {
		return n
	}
	return 1
}

// Error carries a Code, a message meant for the user and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap returns an Error that records cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// WrapFile wraps a file access error, choosing FILE_NOT_FOUND when the file is
// missing and fallback otherwise.
func WrapFile(fallback Code, cause error, path string) *Error {
	if errors.Is(cause, fs.ErrNotExist) {
		return Wrap(ErrCodeFileNotFound, cause, "file not found: %s", path)
	}
	return Wrap(fallback, cause, "cannot read %s", path)
}

// Is reports whether the first *Error in err's chain has code.
func Is(err error, code Code) bool { return code != "" && GetCode(err) == code }

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage renders err without its code prefix.
func UserMessage(err error) string {
	e, ok := asError(err)
	if !ok {
		return err.Error()
	}
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
