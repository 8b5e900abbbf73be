package device

import (
	"errors"
	"fmt"
)

// Kind classifies a device failure.
type Kind string

const (
	KindProcessFailure Kind = "process-failure" // adb ran and exited non-zero
	KindNotFound       Kind = "not-found"       // adb could not be located
	KindTimeout        Kind = "timeout"         // killed by deadline or cancellation
	KindParseFailure   Kind = "parse-failure"   // device output was not understood
	KindUnexpected     Kind = "unexpected"      // anything else
)

// Error is returned by every Bridge and Controller operation.
//
// Its text keeps the two shapes MCP clients already know: "Error: <stderr>"
// when adb exited non-zero and "Unexpected Error: <message>" otherwise.
type Error struct {
	Kind     Kind
	Op       string // adb subcommand, e.g. "shell input"
	Message  string
	ExitCode int // set for KindProcessFailure
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == KindProcessFailure {
		return "Error: " + e.Message
	}
	return "Unexpected Error: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail renders the error with its kind and operation for logs.
func (e *Error) Detail() string {
	if e.Kind == KindProcessFailure {
		return fmt.Sprintf("%s [%s, exit %d]: %s", e.Op, e.Kind, e.ExitCode, e.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Op, e.Kind, e.Message)
}

// IsKind reports whether err is a device Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the kind of a device Error, or "" for other errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func newError(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}
