// Package interp executes bytecode programs over erased arrays.
//
// The global operation table pairs every operation with a canonical name of
// the form {op}_{dtype}_{rank}, for example mul_i32_1 or reshape_2_f32_3.
// The table is sorted by name and an opcode is an index into it. A Runtime
// maps names to opcodes once so that code generators can link names ahead
// of time:
//
//	rt := interp.Default()
//	w := bytecode.NewWriter()
//	w.Opcode(rt.MustLink("fill_i32_1"))
//	bytecode.WriteShape(w, [1]int{5})
//	bytecode.WriteValue(w, int32(2))
//	...
//	result, err := rt.Eval(w.Bytes())
//
// Handlers pop their inputs, push one result and read inline operands from
// the same cursor as the dispatch loop. Binary operations pop the right
// operand first. Any failure ends the evaluation; nothing is retried.
package interp
