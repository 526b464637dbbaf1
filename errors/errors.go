package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve  Phase = "resolve"  // range bounds against a shape
	PhaseView     Phase = "view"     // view construction and transforms
	PhaseAssign   Phase = "assign"   // ranged and full assignment
	PhaseIterate  Phase = "iterate"  // map/zip composition
	PhaseErase    Phase = "erase"    // type erasure and recovery
	PhaseDecode   Phase = "decode"   // bytecode operand reading
	PhaseEncode   Phase = "encode"   // bytecode operand writing
	PhaseLink     Phase = "link"     // name to opcode resolution
	PhaseDispatch Phase = "dispatch" // handler execution
	PhaseCompile  Phase = "compile"  // expression and assembler front ends
	PhaseKernel   Phase = "kernel"   // wasm kernel host
)

// Kind categorizes the error
type Kind string

const (
	KindShapeMismatch  Kind = "shape_mismatch"
	KindOutOfRange     Kind = "out_of_range"
	KindTypeMismatch   Kind = "type_mismatch"
	KindTruncated      Kind = "truncated"
	KindUnknownOpcode  Kind = "unknown_opcode"
	KindUnknownOp      Kind = "unknown_op"
	KindStackUnderflow Kind = "stack_underflow"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindNotFound       Kind = "not_found"
	KindInstantiation  Kind = "instantiation"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Have   string
	Want   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Have != "" || e.Want != "" {
		b.WriteString(": ")
		if e.Have != "" && e.Want != "" {
			b.WriteString("have ")
			b.WriteString(e.Have)
			b.WriteString(", want ")
			b.WriteString(e.Want)
		} else if e.Have != "" {
			b.WriteString("have ")
			b.WriteString(e.Have)
		} else {
			b.WriteString("want ")
			b.WriteString(e.Want)
		}
	}

	if e.Detail != "" {
		if e.Have != "" || e.Want != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase == "" {
			return e.Kind == t.Kind
		}
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path, e.g. the op name and operand
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Have sets the element type, shape or count that was found
func (b *Builder) Have(t string) *Builder {
	b.err.Have = t
	return b
}

// Want sets the element type or shape that was expected
func (b *Builder) Want(t string) *Builder {
	b.err.Want = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ShapeMismatch creates a shape mismatch error between two extents
func ShapeMismatch(phase Phase, have, want any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindShapeMismatch,
		Have:   fmt.Sprint(have),
		Want:   fmt.Sprint(want),
		Detail: "shapes must match exactly",
	}
}

// OutOfRange creates an error for an axis interval outside [0, length]
func OutOfRange(phase Phase, axis, start, end, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfRange,
		Path:   []string{fmt.Sprintf("axis%d", axis)},
		Detail: fmt.Sprintf("range [%d, %d) outside axis of length %d", start, end, length),
		Value:  [2]int{start, end},
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, have, want string) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindTypeMismatch,
		Path:  path,
		Have:  have,
		Want:  want,
	}
}

// Truncated creates an error for an operand running past the end of the code
func Truncated(phase Phase, operand string, position, need int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTruncated,
		Path:   []string{operand},
		Detail: fmt.Sprintf("need %d bytes at position %d", need, position),
		Value:  position,
	}
}

// UnknownOpcode creates an error for an opcode outside the operation table
func UnknownOpcode(opcode uint32, tableLen int) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindUnknownOpcode,
		Detail: fmt.Sprintf("opcode %d out of range (table has %d ops)", opcode, tableLen),
		Value:  opcode,
	}
}

// StackUnderflow creates an error for popping or referencing a missing operand
func StackUnderflow(op string, index, depth int) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindStackUnderflow,
		Path:   []string{op},
		Detail: fmt.Sprintf("slot %d unavailable (depth %d)", index, depth),
		Value:  index,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseKernel,
		Kind:   KindInstantiation,
		Detail: "instantiate kernel module",
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// UnlinkedError is returned when one or more operation names do not resolve
// to an opcode.
type UnlinkedError struct {
	Names []string
}

// NewUnlinkedError creates an error from a list of op names
func NewUnlinkedError(names []string) *UnlinkedError {
	return &UnlinkedError{Names: append([]string(nil), names...)}
}

// family returns the op family of a generated name, "mul_i32_2" -> "mul".
// Multi-word families keep every segment before the type suffix.
func family(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return name
	}
	return strings.Join(parts[:len(parts)-2], "_")
}

func (e *UnlinkedError) Error() string {
	if len(e.Names) == 0 {
		return "[link] unknown_op: no names specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("unknown %d op(s):\n", len(e.Names)))

	byFamily := make(map[string][]string)
	var order []string
	for _, name := range e.Names {
		f := family(name)
		if _, exists := byFamily[f]; !exists {
			order = append(order, f)
		}
		byFamily[f] = append(byFamily[f], name)
	}

	for _, f := range order {
		b.WriteString("\n  ")
		b.WriteString(f)
		b.WriteString(":\n")
		for _, name := range byFamily[f] {
			b.WriteString("    - ")
			b.WriteString(name)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *UnlinkedError) Is(target error) bool {
	_, ok := target.(*UnlinkedError)
	return ok
}
