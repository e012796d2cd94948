package hostapi

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/fesily/wasm-nginx-module/errors"
)

// Func is a host callback invoked by guest code. It runs on the guest's call
// stack: parameters arrive on, and the i32 result leaves through, the shared
// value stack.
type Func = api.GoModuleFunc

// Descriptor is one host API entry: a function the guest may import as
// ("env", Name). All host APIs return a single i32 status, per the host ABI.
type Descriptor struct {
	Name  string
	Shape Shape
	Func  Func
}

// ResultTypes returns the fixed result signature of every host API.
func (d Descriptor) ResultTypes() []api.ValueType {
	return []api.ValueType{api.ValueTypeI32}
}

// Table is an explicit sized sequence of host API descriptors. It is
// immutable for the process lifetime and shared read-only by all plugins.
type Table []Descriptor

// FromSentinel adapts a sentinel-terminated descriptor array (the host
// server's native table layout, terminated by an empty-name entry) into a
// sized Table. Entries past the first empty name are dropped.
func FromSentinel(entries []Descriptor) Table {
	for i, e := range entries {
		if e.Name == "" {
			return Table(entries[:i])
		}
	}
	return Table(entries)
}

// Validate checks every descriptor: non-empty name, known shape, non-nil
// callback. The first offending entry fails the whole table.
func (t Table) Validate() error {
	for _, d := range t {
		if d.Name == "" {
			return errors.InvalidInput(errors.PhaseLink, "host API with empty name")
		}
		if !d.Shape.Valid() {
			return errors.Registration("env", d.Name,
				errors.UnknownShape(d.Shape))
		}
		if d.Func == nil {
			return errors.Registration("env", d.Name,
				errors.InvalidInput(errors.PhaseLink, "nil callback"))
		}
	}
	return nil
}
