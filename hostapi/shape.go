package hostapi

import (
	"strconv"

	"github.com/tetratelabs/wazero/api"
)

// Shape selects the parameter list of a function signature from a closed
// enumeration. The guest-facing call trampoline accepts only ShapeVoid and
// ShapeI32I32; the wider variants exist for host API descriptors.
type Shape int

const (
	// ShapeVoid declares no parameters.
	ShapeVoid Shape = iota
	// ShapeI32 declares one 32-bit integer parameter.
	ShapeI32
	// ShapeI32I32 declares two 32-bit integer parameters.
	ShapeI32I32
	// ShapeI32I32I32 declares three 32-bit integer parameters.
	ShapeI32I32I32
	// ShapeI32I32I32I32 declares four 32-bit integer parameters.
	ShapeI32I32I32I32
	// ShapeI32I32I32I32I32 declares five 32-bit integer parameters.
	ShapeI32I32I32I32I32

	shapeCount
)

// Valid reports whether s is a member of the closed shape set.
func (s Shape) Valid() bool {
	return s >= ShapeVoid && s < shapeCount
}

// ParamCount returns the number of parameters the shape declares, or -1 for
// an unknown shape.
func (s Shape) ParamCount() int {
	if !s.Valid() {
		return -1
	}
	return int(s)
}

// ParamTypes derives the engine-level parameter types for the shape.
// Unknown shapes yield nil; callers must treat that as an error.
func (s Shape) ParamTypes() []api.ValueType {
	n := s.ParamCount()
	if n <= 0 {
		return nil
	}
	types := make([]api.ValueType, n)
	for i := range types {
		types[i] = api.ValueTypeI32
	}
	return types
}

func (s Shape) String() string {
	switch s {
	case ShapeVoid:
		return "void"
	case ShapeI32:
		return "i32"
	case ShapeI32I32:
		return "i32_i32"
	case ShapeI32I32I32:
		return "i32_i32_i32"
	case ShapeI32I32I32I32:
		return "i32_i32_i32_i32"
	case ShapeI32I32I32I32I32:
		return "i32_i32_i32_i32_i32"
	default:
		return "shape(" + strconv.Itoa(int(s)) + ")"
	}
}
