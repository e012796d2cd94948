// Package vm implements the wazero-backed plugin VM: engine lifecycle,
// all-or-nothing plugin loading, and the typed call trampoline the host
// server dispatches guest hooks through.
package vm
