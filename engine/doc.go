// Package engine provides the process-wide WebAssembly engine and the
// per-plugin stores derived from it, backed by wazero.
//
// The Engine is created once at host init and destroyed once at host
// shutdown. It owns the compilation cache and runtime configuration shared
// by every plugin. A Store is the isolated runtime state for exactly one
// plugin instantiation: memory, tables and globals live in the store, and
// closing the store invalidates everything instantiated inside it.
//
// The Engine is shared read-only after creation. Stores are exclusively
// owned by their plugin and must not be shared.
package engine
