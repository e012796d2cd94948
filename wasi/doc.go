// Package wasi configures the WASI preview1 environment a plugin runs in.
//
// Plugins inherit the host process's argv, environment, and standard
// streams by default, matching how an embedding server hands its own
// context to extensions. Individual pieces can be overridden for tests
// or sandboxing.
package wasi
