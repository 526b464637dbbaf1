// Package expr builds array expressions and compiles them to bytecode.
//
// Expressions are untyped at the Go level: every node carries its element
// type and shape as values and the builders check them as the graph grows.
// A bad construction is recorded in the node and surfaces from Compile, so
// long chains need a single error check:
//
//	x := expr.Input("x", xs)
//	y := x.Mul(expr.Fill(array.Float32, []int{1}, float32(2))).Add(x)
//	out, err := expr.Eval(interp.Default(), y)
//
// Binary operations broadcast their right operand to the shape of the left
// one through size-one axes, as does Merge for its source.
package expr
