package sandbox

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for error classification.
var (
	// ErrCapabilityDenied indicates that a script requested an operation or
	// module outside the allow-list.
	ErrCapabilityDenied = errors.New("capability denied")

	// ErrScriptFault indicates an uncaught fault raised during script
	// evaluation, such as a syntax error or a thrown exception.
	ErrScriptFault = errors.New("script fault")

	// ErrTimeout indicates the deadline expired before the script completed.
	ErrTimeout = errors.New("execution timed out")

	// ErrLimitExceeded indicates that an execution limit was reached,
	// such as the maximum number of tool calls.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrConfiguration indicates an invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// CapabilityError is returned when a script requests a builtin or module
// load outside the allow-list. The message enumerates the permitted set so
// a self-correcting caller can retry with a valid name.
type CapabilityError struct {
	// Op is the denied operation kind: "require" or "spawn".
	Op string

	// Name is the requested name.
	Name string

	// Allowed is the sorted permitted set for Op.
	Allowed []string
}

// Error returns the denial message, listing the permitted names.
func (e *CapabilityError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s of %q is not allowed; nothing is permitted", e.Op, e.Name)
	}
	return fmt.Sprintf("%s of %q is not allowed; available: %s",
		e.Op, e.Name, strings.Join(e.Allowed, ", "))
}

// Is reports whether this error matches ErrCapabilityDenied.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapabilityDenied
}

// ScriptError represents an uncaught fault raised during script evaluation.
// Stack carries the full exception text including the script stack trace,
// never truncated, so it can be replayed verbatim to a calling LLM.
type ScriptError struct {
	// Kind is the fault kind, e.g. "TypeError", "SyntaxError", "Error".
	Kind string

	// Message describes the fault.
	Message string

	// Stack is the complete exception and stack trace text.
	Stack string
}

// Error returns "Kind: Message".
func (e *ScriptError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}

// Is reports whether this error matches ErrScriptFault.
func (e *ScriptError) Is(target error) bool {
	return target == ErrScriptFault
}
