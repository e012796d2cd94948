// Package errors provides structured error types for the plugin VM.
//
// Errors are categorized by Phase (which lifecycle operation failed) and
// Kind (error category), with a human-readable detail and an optional cause:
//
//	err := errors.Load("compile module", cause)
//	err := errors.NotFound(errors.PhaseCall, "export", "proxy_on_tick")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
