// Package failure defines the error kinds reported by the shortcut pipeline.
// Every fatal condition carries a stable Kind so callers can decide how to
// report it without matching on message text.
package failure

import (
	"errors"
	"fmt"
)

// Kind is a stable identifier for a failure mode.
type Kind string

const (
	// ServiceUnavailable means the dependency oracle could not be reached.
	ServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	// UnknownProject means the oracle rejected a project name.
	UnknownProject Kind = "UNKNOWN_PROJECT"
	// UnknownScenario means the oracle rejected a change scenario.
	UnknownScenario Kind = "UNKNOWN_SCENARIO"
	// NoCheckoutRoot means the working directory is not inside a checkout.
	NoCheckoutRoot Kind = "NO_CHECKOUT_ROOT"
	// NoDescriptorFound means no build descriptor exists between the working
	// directory and the checkout root.
	NoDescriptorFound Kind = "NO_DESCRIPTOR_FOUND"
	// MalformedDescriptor means the build descriptor could not be parsed or
	// declares neither a name nor an identifier.
	MalformedDescriptor Kind = "MALFORMED_DESCRIPTOR"
	// MissingBuildFile means the oracle knows a project the checkout lacks.
	MissingBuildFile Kind = "MISSING_BUILD_FILE"
	// EmptyProjectList means a build was requested for zero projects.
	EmptyProjectList Kind = "EMPTY_PROJECT_LIST"
	// InvalidSelection means the operator typed something that is not a
	// valid choice. It is recoverable and never aborts the pipeline.
	InvalidSelection Kind = "INVALID_SELECTION"
	// InputClosed means the operator input stream ended while a choice was pending.
	InputClosed Kind = "INPUT_CLOSED"
	// InvalidResponse means the oracle answered outside its contract.
	InvalidResponse Kind = "INVALID_RESPONSE"
)

// Error is a pipeline failure with a kind, a message and optional remediation hints.
type Error struct {
	Kind    Kind
	Message string
	Path    string   // offending file or directory, if any
	Hints   []string // remediation hints shown after the message
	cause   error
}

// New creates an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%v)", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithPath records the file or directory the failure is about.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithHints attaches remediation hints.
func (e *Error) WithHints(hints ...string) *Error {
	e.Hints = append(e.Hints, hints...)
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HintsOf returns the hints of the first *Error in err's chain.
func HintsOf(err error) []string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Hints
	}
	return nil
}
