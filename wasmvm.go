package wasmvm

import (
	"context"

	"github.com/fesily/wasm-nginx-module/hostapi"
)

// Status is the host server's generic integer status convention. It doubles
// as the return channel for guest exports that produce an i32: a successful
// call to such an export yields the guest's value as the Status, which is
// indistinguishable from an infrastructure-level status of the same value.
// That conflation is inherited from the host ABI and preserved here.
type Status int32

const (
	// OK signals success, and is also returned when an optional guest hook
	// is not exported at all.
	OK Status = 0

	// Error signals a failed call: an engine dispatch error, a guest trap,
	// an unknown parameter shape, or a result-type violation. The causes are
	// not distinguished to the caller.
	Error Status = -1

	// Declined is the status hosts conventionally map a load failure to.
	// The loader itself returns an error; no plugin exists afterwards.
	Declined Status = -5
)

// VM is the boundary contract the plugin subsystem exposes to the host
// server. It mirrors the host's VM vtable: name, load, call, unload, cleanup.
type VM interface {
	// Name identifies the underlying engine.
	Name() string

	// Load compiles and instantiates bytecode into a runnable Plugin.
	// On failure nothing is retained and no plugin exists.
	Load(ctx context.Context, bytecode []byte) (Plugin, error)

	// Close destroys the engine. It must only be called once no Plugin
	// remains; it is a no-op when the VM was never initialized or is
	// already closed.
	Close(ctx context.Context) error
}

// Plugin is one loaded guest module: a compiled module bound to an isolated
// store with a live instance. Calls against a Plugin must be serialized by
// its owner.
type Plugin interface {
	// Call invokes the named guest export through the typed trampoline.
	// A missing export is not an error and yields OK.
	Call(ctx context.Context, name string, hasResult bool, shape hostapi.Shape, args ...int32) Status

	// Close releases the plugin's module, store and linker. It must not be
	// called while a Call is in flight.
	Close(ctx context.Context) error
}
