// Package wasm provides minimal WebAssembly binary format support: a
// module header check used to reject non-wasm bytecode early, and a
// small section encoder for synthesizing core modules in tests and
// examples.
package wasm
