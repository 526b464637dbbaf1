// Package asm translates between interpreter bytecode and a line-oriented
// text form.
//
// Each line holds one operation name followed by its inline operands:
//
//	# two filled vectors, multiplied
//	fill_i32_1 [5] 2
//	fill_i32_1 [5] 3
//	mul_i32_1            ; pops 3s then 2s
//
// Operand syntax follows the operation signature. Shapes are [5,4], ranges
// are [1:3,-1:4], masks are [t,f], stack references are #0 and scalars are
// Go literals of the element type. A line starting with # is a comment and
// ; comments out the rest of a line.
package asm
