// Package errors provides structured error types for the array engine and
// its bytecode interpreter.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the found and expected type or shape, a location
// path and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
//		Path("add_i32_2", "lhs").
//		Have("f32[2]").
//		Want("i32[2]").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ShapeMismatch(errors.PhaseAssign, []int{5}, []int{4})
//	err := errors.OutOfRange(errors.PhaseResolve, 0, 3, 9, 4)
//
// Shape and range violations raised by array operations are caller
// programming errors; array methods panic with an *Error value and the
// interpreter recovers them into ordinary error returns.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
