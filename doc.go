// Package cayley provides a statically ranked N-dimensional array engine
// and a compact bytecode interpreter that evaluates array programs over
// type-erased values.
//
// Arrays are generic over their element type and a fixed-size shape, so
// rank is checked by the compiler. Interpreted programs do not know element
// types or ranks ahead of time: values on the interpreter stack are erased in
// two stages and recovered by checked downcast at dispatch.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	cayley/
//	├── array/       Owned arrays, strided views, lazy Map/Zip/Fold, ranges
//	├── erasure/     TypedArray (rank erased) and AnyArray (fully erased)
//	├── bytecode/    Little-endian operand reader and writer
//	├── interp/      Operation table, name to opcode linking, stack machine
//	├── asm/         Text assembler over the operation table
//	├── expr/        Shape- and type-checked expression builder and compiler
//	├── kernel/      Element-wise kernels running inside wazero
//	├── errors/      Structured error types for debugging
//	└── cmd/cayley/  Command line runner and interactive REPL
//
// # Quick Start
//
// Assemble and evaluate a program:
//
//	rt := interp.Default()
//	code, err := asm.Assemble(rt, `
//	    fill_i32_5 [6,6,6,6,6] 2
//	    fill_i32_5 [6,6,6,6,6] 5
//	    mul_i32_5
//	`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := rt.Eval(code)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a, ok := erasure.Recover[int32, [5]int](out)
//
// Or build the same program as an expression:
//
//	two := expr.Fill(array.Int32, []int{6, 6, 6, 6, 6}, int32(2))
//	five := expr.Fill(array.Int32, []int{6, 6, 6, 6, 6}, int32(5))
//	out, err := expr.Eval(rt, two.Mul(five))
//
// # Operation Names
//
// Every operation is registered as {family}_{dtype}_{rank}, for example
// add_f32_2 or cast_u8_i32_3. The table is sorted by name and the opcode of
// an operation is its index, so opcodes are stable for a given build.
// Programs carry opcodes, not names; they are portable only between
// interpreters built from the same table.
//
// # Thread Safety
//
// Runtime is immutable after construction and safe for concurrent use. A
// Stack and the arrays on it belong to a single evaluation. kernel.Host
// serializes calls internally.
package cayley
