// Package linker binds a plugin's imports: the WASI preview1 system
// interface and the host API table under the "env" namespace. Each
// plugin gets its own linker scoped to its store, so bindings never
// leak between plugins.
package linker
