// Package errors defines the error taxonomy shared by every dbt operation.
// Each failure carries a Kind so programmatic callers can branch without
// inspecting message text, while text-mode callers get a uniform message.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// None means no failure occurred.
	None Kind = iota
	// InvalidOptions means caller-supplied options failed a precondition.
	// The process is never launched.
	InvalidOptions
	// LaunchFailure means the executable could not be found or started.
	LaunchFailure
	// Timeout means the process exceeded its time ceiling and was terminated.
	Timeout
	// Cancelled means the caller abandoned the invocation.
	Cancelled
	// ExecutionFailure means the process ran and exited unsuccessfully.
	ExecutionFailure
	// FormattingDegraded means output could not be reshaped and raw text was used.
	// It is logged, never surfaced as a hard error.
	FormattingDegraded
	// Configuration means configuration could not be loaded or validated.
	Configuration
)

// String returns the tag used in logs and diagnostics.
func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case InvalidOptions:
		return "InvalidOptions"
	case LaunchFailure:
		return "LaunchFailure"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	case ExecutionFailure:
		return "ExecutionFailure"
	case FormattingDegraded:
		return "FormattingDegraded"
	case Configuration:
		return "Configuration"
	default:
		return "Unknown"
	}
}

// Title returns the heading used when the error is printed for a human.
func (k Kind) Title() string {
	switch k {
	case InvalidOptions:
		return "Invalid Options"
	case LaunchFailure:
		return "Launch Failure"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	case ExecutionFailure:
		return "Execution Failure"
	case Configuration:
		return "Configuration Error"
	default:
		return "Error"
	}
}

// Error is a classified failure.
type Error struct {
	Kind        Kind
	Op          string
	Message     string
	Err         error
	Remediation []string
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind with a formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. Returns nil when err is nil.
func Wrap(kind Kind, op string, err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// NewInvalidOptions creates an InvalidOptions error with optional remediation steps.
func NewInvalidOptions(op, message string, remediation ...string) *Error {
	return &Error{Kind: InvalidOptions, Op: op, Message: message, Remediation: remediation}
}

// NewConfigError creates a Configuration error with optional remediation steps.
func NewConfigError(message string, err error, remediation ...string) *Error {
	return &Error{Kind: Configuration, Message: message, Err: err, Remediation: remediation}
}

// KindOf returns the Kind carried by err, None for nil, and ExecutionFailure
// for errors that carry no classification.
func KindOf(err error) Kind {
	if err == nil {
		return None
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ExecutionFailure
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
