package wasm

import (
	"encoding/binary"
	"math"
)

// Instruction byte helpers used to assemble function bodies.

// Body concatenates instruction byte sequences.
func Body(instrs ...[]byte) []byte {
	var out []byte
	for _, in := range instrs {
		out = append(out, in...)
	}
	return out
}

func Unreachable() []byte { return []byte{0x00} }

func End() []byte { return []byte{0x0b} }

func Drop() []byte { return []byte{0x1a} }

func LocalGet(idx uint32) []byte {
	return append([]byte{0x20}, EncodeLEB128u(idx)...)
}

func Call(funcIdx uint32) []byte {
	return append([]byte{0x10}, EncodeLEB128u(funcIdx)...)
}

func I32Const(v int32) []byte {
	return append([]byte{0x41}, EncodeLEB128s(v)...)
}

func F64Const(v float64) []byte {
	out := make([]byte, 9)
	out[0] = 0x44
	binary.LittleEndian.PutUint64(out[1:], math.Float64bits(v))
	return out
}

func I32Load(align, offset uint32) []byte {
	out := []byte{0x28}
	out = append(out, EncodeLEB128u(align)...)
	return append(out, EncodeLEB128u(offset)...)
}

func I32Add() []byte { return []byte{0x6a} }

func I32Sub() []byte { return []byte{0x6b} }

func I32DivS() []byte { return []byte{0x6d} }
