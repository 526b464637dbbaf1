// Package bytecode reads and writes the operand encoding of interpreter
// programs.
//
// Every field is little-endian and fixed width:
//
//	opcode  u32
//	ref     u16, stack slot counted from the bottom
//	shape   one u32 extent per axis
//	range   one (i32 start, i32 end) pair per axis
//	mask    one byte per axis, nonzero means set
//	value   natural width of the element type, bool is one byte
//
// A program is a plain concatenation of instructions with no header, length
// or terminator. Reading past the end yields a truncated error carrying the
// operand name and byte position.
package bytecode
