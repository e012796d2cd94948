// Package wasmvm provides the WebAssembly plugin VM of the wasm-nginx-module
// host: loading compiled WASM plugins, binding host APIs into their import
// space, invoking guest exports through a shape-tagged trampoline, and tearing
// everything down again.
//
// # Architecture Overview
//
// The library is organized into flat feature packages:
//
//	wasmvm/      Root package with the Status convention and boundary interfaces
//	├── vm/      Plugin lifecycle: load -> call* -> unload, plus init/cleanup
//	├── engine/  Process-wide engine singleton and per-plugin stores (wazero)
//	├── linker/  Import binding: WASI definitions and the "env" host API module
//	├── hostapi/ The host API table: shape-tagged function descriptors
//	├── wasi/    System Interface configuration (inherited argv/env/stdio)
//	├── wasm/    Core-module binary primitives (header check, LEB128, builder)
//	└── errors/  Structured error types
//
// # Quick Start
//
// Load and call a plugin:
//
//	v, err := vm.New(ctx, vm.WithHostAPIs(table))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer v.Close(ctx)
//
//	plugin, err := v.Load(ctx, bytecode)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer plugin.Close(ctx)
//
//	status := plugin.Call(ctx, "proxy_on_vm_start", true, hostapi.ShapeI32I32, 0, 0)
//
// # Status Convention
//
// Call results are reported through the host server's generic integer status
// channel. A guest export that declares an i32 result has that value returned
// as the status verbatim, so callers must know which exports return business
// values and which are fire-and-forget. See Status for details.
//
// # Thread Safety
//
// A VM may load plugins from multiple goroutines. A Plugin is NOT safe for
// concurrent use: calls against one plugin must be serialized by its owner,
// and Call must never race Close.
package wasmvm
