// Package hostapi describes the functions the host server offers for guest
// modules to import from the "env" namespace.
//
// The table is pure data: an ordered sequence of (name, shape, callback)
// descriptors, owned by the host and read-only to the VM. Signatures are
// selected from a closed set of shape tags rather than expressed as free-form
// type lists; extending the set means adding a Shape constant and its
// parameter derivation together.
package hostapi
