package kernel

import (
	"slices"

	"github.com/wippyai/cayley/array"
)

const (
	sectionType   = 1
	sectionFunc   = 3
	sectionMemory = 5
	sectionExport = 7
	sectionCode   = 10

	exportFunc   = 0x00
	exportMemory = 0x02

	funcTypeMarker = 0x60
	valI32         = 0x7F
	valI64         = 0x7E
	valF32         = 0x7D
	valF64         = 0x7C

	opBlock    = 0x02
	opLoop     = 0x03
	opBr       = 0x0C
	opBrIf     = 0x0D
	opEnd      = 0x0B
	opLocalGet = 0x20
	opLocalSet = 0x21
	opI32Const = 0x41
	opI32GeU   = 0x4F
	opI32Add   = 0x6A
	blockEmpty = 0x40
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// lane describes how one element type is loaded, stored and combined.
type lane struct {
	load  byte
	store byte
	ops   map[string]byte
}

var lanes = map[array.DType]lane{
	array.Int32: {load: 0x28, store: 0x36, ops: map[string]byte{
		"add": 0x6A, "sub": 0x6B, "mul": 0x6C,
	}},
	array.Int64: {load: 0x29, store: 0x37, ops: map[string]byte{
		"add": 0x7C, "sub": 0x7D, "mul": 0x7E,
	}},
	array.Float32: {load: 0x2A, store: 0x38, ops: map[string]byte{
		"add": 0x92, "sub": 0x93, "mul": 0x94, "div": 0x95, "min": 0x96, "max": 0x97,
	}},
	array.Float64: {load: 0x2B, store: 0x39, ops: map[string]byte{
		"add": 0xA0, "sub": 0xA1, "mul": 0xA2, "div": 0xA3, "min": 0xA4, "max": 0xA5,
	}},
}

// Ops returns the kernel names available for dtype, sorted.
func Ops(dtype array.DType) []string {
	l, ok := lanes[dtype]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(l.ops))
	for name := range l.ops {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Supported reports whether a kernel exists for op on dtype.
func Supported(op string, dtype array.DType) bool {
	_, ok := lanes[dtype].ops[op]
	return ok
}

type buffer struct {
	bytes []byte
}

func (b *buffer) put(v byte) {
	b.bytes = append(b.bytes, v)
}

func (b *buffer) write(v ...byte) {
	b.bytes = append(b.bytes, v...)
}

// u32 writes unsigned LEB128.
func (b *buffer) u32(v uint32) {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b.put(c)
		if v == 0 {
			return
		}
	}
}

// i32 writes signed LEB128.
func (b *buffer) i32(v int32) {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			b.put(c)
			return
		}
		b.put(c | 0x80)
	}
}

func (b *buffer) name(s string) {
	b.u32(uint32(len(s)))
	b.write([]byte(s)...)
}

func (b *buffer) section(id byte, content *buffer) {
	b.put(id)
	b.u32(uint32(len(content.bytes)))
	b.write(content.bytes...)
}

// encodeModule builds a module exporting "memory" and one function per op
// name. Each function has the signature (l, r, out, n i32) and combines
// the n bytes at l and r element by element into out.
func encodeModule(dtype array.DType, names []string) []byte {
	l := lanes[dtype]
	size := int32(dtype.Size())

	out := &buffer{}
	out.write(wasmHeader...)

	types := &buffer{}
	types.u32(1)
	types.write(funcTypeMarker, 4, valI32, valI32, valI32, valI32, 0)
	out.section(sectionType, types)

	funcs := &buffer{}
	funcs.u32(uint32(len(names)))
	for range names {
		funcs.u32(0)
	}
	out.section(sectionFunc, funcs)

	mem := &buffer{}
	mem.u32(1)
	mem.write(0x00)
	mem.u32(1)
	out.section(sectionMemory, mem)

	exports := &buffer{}
	exports.u32(uint32(len(names) + 1))
	exports.name("memory")
	exports.write(exportMemory)
	exports.u32(0)
	for i, name := range names {
		exports.name(name)
		exports.write(exportFunc)
		exports.u32(uint32(i))
	}
	out.section(sectionExport, exports)

	code := &buffer{}
	code.u32(uint32(len(names)))
	for _, name := range names {
		body := loopBody(l.load, l.store, l.ops[name], size)
		code.u32(uint32(len(body.bytes)))
		code.write(body.bytes...)
	}
	out.section(sectionCode, code)

	return out.bytes
}

// loopBody walks byte offset i (local 4) from 0 to n in steps of size.
func loopBody(load, store, op byte, size int32) *buffer {
	b := &buffer{}
	b.u32(1)
	b.write(1, valI32)

	b.write(opBlock, blockEmpty)
	b.write(opLoop, blockEmpty)

	b.write(opLocalGet, 4, opLocalGet, 3, opI32GeU, opBrIf, 1)

	b.write(opLocalGet, 2, opLocalGet, 4, opI32Add)
	b.write(opLocalGet, 0, opLocalGet, 4, opI32Add, load, 0, 0)
	b.write(opLocalGet, 1, opLocalGet, 4, opI32Add, load, 0, 0)
	b.write(op)
	b.write(store, 0, 0)

	b.write(opLocalGet, 4, opI32Const)
	b.i32(size)
	b.write(opI32Add, opLocalSet, 4)
	b.write(opBr, 0)

	b.write(opEnd, opEnd, opEnd)
	return b
}
