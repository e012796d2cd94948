package wasm

import (
	"bytes"
	"encoding/binary"
)

// Magic and Version form the 8-byte core module header.
const (
	Magic   uint32 = 0x6d736100 // "\0asm"
	Version uint32 = 1
)

// Section IDs
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionExport   byte = 7
	SectionCode     byte = 10
)

// Value types
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
	F32 byte = 0x7d
	F64 byte = 0x7c
)

// Export kinds
const (
	KindFunc   byte = 0x00
	KindMemory byte = 0x02
)

const funcTypeByte byte = 0x60

// IsModule reports whether b starts with the core module header
// (magic number plus binary format version 1).
func IsModule(b []byte) bool {
	if len(b) < 8 {
		return false
	}
	return binary.LittleEndian.Uint32(b[0:4]) == Magic &&
		binary.LittleEndian.Uint32(b[4:8]) == Version
}

// FuncType describes a function signature.
type FuncType struct {
	Params  []byte
	Results []byte
}

type importEntry struct {
	module  string
	name    string
	typeIdx uint32
}

type funcEntry struct {
	typeIdx uint32
	body    []byte
}

type exportEntry struct {
	name string
	kind byte
	idx  uint32
}

// Builder assembles a core module from typed functions, imports, and
// exports. Function indices follow the binary format: imported functions
// come first, so all ImportFunc calls must precede Func calls.
type Builder struct {
	types    []FuncType
	imports  []importEntry
	funcs    []funcEntry
	exports  []exportEntry
	memPages uint32
	hasMem   bool
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) typeIndex(ft FuncType) uint32 {
	for i, t := range b.types {
		if bytes.Equal(t.Params, ft.Params) && bytes.Equal(t.Results, ft.Results) {
			return uint32(i)
		}
	}
	b.types = append(b.types, ft)
	return uint32(len(b.types) - 1)
}

// ImportFunc declares a function import and returns its function index.
func (b *Builder) ImportFunc(module, name string, ft FuncType) uint32 {
	if len(b.funcs) > 0 {
		panic("wasm: imports must be declared before functions")
	}
	b.imports = append(b.imports, importEntry{module, name, b.typeIndex(ft)})
	return uint32(len(b.imports) - 1)
}

// Func adds a function with the given signature and body (instruction
// bytes, terminated by End) and returns its function index.
func (b *Builder) Func(ft FuncType, body []byte) uint32 {
	b.funcs = append(b.funcs, funcEntry{b.typeIndex(ft), body})
	return uint32(len(b.imports) + len(b.funcs) - 1)
}

// Export exports the function at idx under name.
func (b *Builder) Export(name string, idx uint32) {
	b.exports = append(b.exports, exportEntry{name, KindFunc, idx})
}

// Memory declares a memory with the given minimum page count and
// exports it as "memory".
func (b *Builder) Memory(minPages uint32) {
	b.memPages = minPages
	b.hasMem = true
	b.exports = append(b.exports, exportEntry{"memory", KindMemory, 0})
}

func writeName(w *bytes.Buffer, s string) {
	WriteLEB128u(w, uint32(len(s)))
	w.WriteString(s)
}

func writeSection(w *bytes.Buffer, id byte, contents []byte) {
	w.WriteByte(id)
	WriteLEB128u(w, uint32(len(contents)))
	w.Write(contents)
}

// Build encodes the module to WebAssembly binary format.
func (b *Builder) Build() []byte {
	var w bytes.Buffer

	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], Magic)
	binary.LittleEndian.PutUint32(hdr[4:8], Version)
	w.Write(hdr[:])

	if len(b.types) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(b.types)))
		for _, ft := range b.types {
			sec.WriteByte(funcTypeByte)
			WriteLEB128u(&sec, uint32(len(ft.Params)))
			sec.Write(ft.Params)
			WriteLEB128u(&sec, uint32(len(ft.Results)))
			sec.Write(ft.Results)
		}
		writeSection(&w, SectionType, sec.Bytes())
	}

	if len(b.imports) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(b.imports)))
		for _, imp := range b.imports {
			writeName(&sec, imp.module)
			writeName(&sec, imp.name)
			sec.WriteByte(KindFunc)
			WriteLEB128u(&sec, imp.typeIdx)
		}
		writeSection(&w, SectionImport, sec.Bytes())
	}

	if len(b.funcs) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(b.funcs)))
		for _, fn := range b.funcs {
			WriteLEB128u(&sec, fn.typeIdx)
		}
		writeSection(&w, SectionFunction, sec.Bytes())
	}

	if b.hasMem {
		var sec bytes.Buffer
		WriteLEB128u(&sec, 1)
		sec.WriteByte(0x00) // min only
		WriteLEB128u(&sec, b.memPages)
		writeSection(&w, SectionMemory, sec.Bytes())
	}

	if len(b.exports) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(b.exports)))
		for _, exp := range b.exports {
			writeName(&sec, exp.name)
			sec.WriteByte(exp.kind)
			WriteLEB128u(&sec, exp.idx)
		}
		writeSection(&w, SectionExport, sec.Bytes())
	}

	if len(b.funcs) > 0 {
		var sec bytes.Buffer
		WriteLEB128u(&sec, uint32(len(b.funcs)))
		for _, fn := range b.funcs {
			var code bytes.Buffer
			WriteLEB128u(&code, 0) // no locals
			code.Write(fn.body)
			WriteLEB128u(&sec, uint32(code.Len()))
			sec.Write(code.Bytes())
		}
		writeSection(&w, SectionCode, sec.Bytes())
	}

	return w.Bytes()
}
