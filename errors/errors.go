package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which lifecycle operation the error occurred in.
type Phase string

const (
	PhaseInit     Phase = "init"     // engine creation
	PhaseLoad     Phase = "load"     // bytecode to live plugin
	PhaseLink     Phase = "link"     // import binding
	PhaseCall     Phase = "call"     // guest invocation
	PhaseTeardown Phase = "teardown" // unload/cleanup
)

// Kind categorizes the error.
type Kind string

const (
	KindEngine        Kind = "engine"          // engine/backend failure
	KindInvalidInput  Kind = "invalid_input"   // malformed caller input
	KindCompile       Kind = "compile"         // bytecode rejected by the engine
	KindWASI          Kind = "wasi"            // System Interface setup
	KindRegistration  Kind = "registration"    // host API binding
	KindInstantiation Kind = "instantiation"   // module instantiation
	KindNotFound      Kind = "not_found"       // missing entity
	KindUnknownShape  Kind = "unknown_shape"   // parameter shape not in the closed set
	KindTypeMismatch  Kind = "type_mismatch"   // result type contract violation
	KindTrap          Kind = "trap"            // guest-raised fault
)

// Error is the structured error type used throughout the VM.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by Phase and Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// New creates an error with an explicit phase and kind.
func New(phase Phase, kind Kind, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
	}
}

// Wrap wraps an existing error with phase, kind and detail context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Convenience constructors for common patterns.

// Init creates an engine-initialization error. Init failures are fatal to
// the whole plugin subsystem.
func Init(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindEngine,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a plugin loading error.
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindCompile,
		Detail: detail,
		Cause:  cause,
	}
}

// InvalidInput creates an invalid input error.
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// WASI creates a System Interface configuration error.
func WASI(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindWASI,
		Detail: detail,
		Cause:  cause,
	}
}

// Registration creates a host API binding error.
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("define %s#%s", namespace, name),
		Cause:  cause,
	}
}

// Instantiation creates a module instantiation error.
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// NotFound creates a not-found error.
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// UnknownShape creates an error for a parameter shape outside the closed set.
func UnknownShape(shape fmt.Stringer) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindUnknownShape,
		Detail: fmt.Sprintf("unknown param shape: %s", shape),
	}
}

// TypeMismatch creates a result type-contract violation error.
func TypeMismatch(detail string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindTypeMismatch,
		Detail: detail,
	}
}
