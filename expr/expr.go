package expr

import (
	"fmt"
	"slices"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/errors"
)

// Kind names the operation an expression node performs.
type Kind string

const (
	KindInput   Kind = "input"
	KindFill    Kind = "fill"
	KindSlice   Kind = "slice"
	KindMerge   Kind = "merge"
	KindExpand  Kind = "expand"
	KindReshape Kind = "reshape"
	KindCast    Kind = "cast"
	KindFlip    Kind = "flip"
	KindStep    Kind = "step"
	KindUnary   Kind = "unary"
	KindBinary  Kind = "binary"
)

// Expr is a node of an untyped array expression. Every node knows its
// element type and shape. Invalid constructions do not panic: the error is
// stored in the node and carried by every expression built on top of it.
type Expr struct {
	kind  Kind
	op    string
	dtype array.DType
	dims  []int
	deps  []*Expr
	err   error

	name  string
	input *erasure.AnyArray
	value any
	start []int
	end   []int
	by    []int
	mask  []bool
}

// DType returns the element type of the result.
func (e *Expr) DType() array.DType { return e.dtype }

// Shape returns the extents of the result.
func (e *Expr) Shape() []int { return slices.Clone(e.dims) }

// Rank returns the number of axes of the result.
func (e *Expr) Rank() int { return len(e.dims) }

// Kind returns the node kind.
func (e *Expr) Kind() Kind { return e.kind }

// Err returns the first construction error in e or its inputs.
func (e *Expr) Err() error { return e.err }

func (e *Expr) String() string {
	if e.err != nil {
		return "invalid(" + e.err.Error() + ")"
	}
	label := string(e.kind)
	if e.op != "" {
		label = e.op
	}
	return fmt.Sprintf("%s:%s%v", label, e.dtype, e.dims)
}

func invalid(err error) *Expr {
	return &Expr{err: err}
}

// derive builds a node over deps, inheriting the first dependency error.
func derive(kind Kind, dtype array.DType, dims []int, deps ...*Expr) *Expr {
	for _, d := range deps {
		if d.err != nil {
			return invalid(d.err)
		}
	}
	return &Expr{kind: kind, dtype: dtype, dims: dims, deps: deps}
}

func buildError(kind errors.Kind, op string, detail string, args ...any) *Expr {
	return invalid(errors.New(errors.PhaseCompile, kind).
		Path(op).
		Detail(detail, args...).
		Build())
}

func checkRank(op string, rank int) *Expr {
	if rank < 1 || rank > array.MaxRank {
		return buildError(errors.KindUnsupported, op, "rank %d outside 1..%d", rank, array.MaxRank)
	}
	return nil
}

// Input wraps an existing array. The array is bound by reference and read
// when the compiled program is evaluated.
func Input(name string, a *erasure.AnyArray) *Expr {
	if !a.Valid() {
		return buildError(errors.KindInvalidData, "input", "input %q holds no array", name)
	}
	return &Expr{kind: KindInput, name: name, input: a, dtype: a.DType(), dims: a.Shape()}
}

// Fill creates an array of dims with every element set to value, which
// must have the Go type of dtype.
func Fill(dtype array.DType, dims []int, value any) *Expr {
	if bad := checkRank("fill", len(dims)); bad != nil {
		return bad
	}
	if got := array.DTypeOfValue(value); got != dtype {
		return invalid(errors.TypeMismatch(errors.PhaseCompile, []string{"fill"}, got.String(), dtype.String()))
	}
	if _, err := array.CheckedSizeOf(dims); err != nil {
		return invalid(err)
	}
	e := derive(KindFill, dtype, slices.Clone(dims))
	e.value = value
	return e
}

// Slice selects the region of e described by spans, one per axis.
func (e *Expr) Slice(spans ...array.Span) *Expr {
	if e.err != nil {
		return e
	}
	start, end, err := array.ResolveSpans(e.dims, spans)
	if err != nil {
		return invalid(err)
	}
	dims := make([]int, len(start))
	for i := range dims {
		dims[i] = end[i] - start[i]
	}
	out := derive(KindSlice, e.dtype, dims, e)
	out.start, out.end = start, end
	return out
}

// Merge writes src into the region of e described by spans. src is
// broadcast to the region shape when its size-one axes allow it.
func (e *Expr) Merge(src *Expr, spans ...array.Span) *Expr {
	if e.err != nil {
		return e
	}
	if src.err != nil {
		return src
	}
	start, end, err := array.ResolveSpans(e.dims, spans)
	if err != nil {
		return invalid(err)
	}
	region := make([]int, len(start))
	for i := range region {
		region[i] = end[i] - start[i]
	}
	if src.dtype != e.dtype {
		return invalid(errors.TypeMismatch(errors.PhaseCompile, []string{"merge"}, src.dtype.String(), e.dtype.String()))
	}
	src = src.conform(region)
	if src.err != nil {
		return src
	}
	out := derive(KindMerge, e.dtype, slices.Clone(e.dims), e, src)
	out.start, out.end = start, end
	return out
}

// Expand broadcasts size-one axes of e to dims. Other axes must match.
func (e *Expr) Expand(dims ...int) *Expr {
	if e.err != nil {
		return e
	}
	if len(dims) != len(e.dims) {
		return invalid(errors.ShapeMismatch(errors.PhaseCompile, e.dims, dims))
	}
	for i := range dims {
		if e.dims[i] != 1 && e.dims[i] != dims[i] {
			return invalid(errors.ShapeMismatch(errors.PhaseCompile, e.dims, dims))
		}
	}
	if _, err := array.CheckedSizeOf(dims); err != nil {
		return invalid(err)
	}
	return derive(KindExpand, e.dtype, slices.Clone(dims), e)
}

// conform returns e unchanged when it already has dims and an Expand
// otherwise.
func (e *Expr) conform(dims []int) *Expr {
	if slices.Equal(e.dims, dims) {
		return e
	}
	return e.Expand(dims...)
}

// Reshape reinterprets e with dims of the same element count.
func (e *Expr) Reshape(dims ...int) *Expr {
	if e.err != nil {
		return e
	}
	if bad := checkRank("reshape", len(dims)); bad != nil {
		return bad
	}
	n, err := array.CheckedSizeOf(dims)
	if err != nil {
		return invalid(err)
	}
	if n != array.SizeOf(e.dims) {
		return invalid(errors.ShapeMismatch(errors.PhaseCompile, e.dims, dims))
	}
	return derive(KindReshape, e.dtype, slices.Clone(dims), e)
}

// Cast converts every element to dtype. Casting to the same type returns
// e. Booleans convert to integers only and nothing converts to bool.
func (e *Expr) Cast(dtype array.DType) *Expr {
	if e.err != nil {
		return e
	}
	if dtype == e.dtype {
		return e
	}
	if !dtype.IsNumber() || (e.dtype.IsBool() && !dtype.IsInteger()) {
		return buildError(errors.KindUnsupported, "cast", "cannot cast %s to %s", e.dtype, dtype)
	}
	return derive(KindCast, dtype, slices.Clone(e.dims), e)
}

// Flip reverses the axes selected by mask.
func (e *Expr) Flip(mask ...bool) *Expr {
	if e.err != nil {
		return e
	}
	if len(mask) != len(e.dims) {
		return invalid(errors.ShapeMismatch(errors.PhaseCompile, len(mask), len(e.dims)))
	}
	out := derive(KindFlip, e.dtype, slices.Clone(e.dims), e)
	out.mask = slices.Clone(mask)
	return out
}

// Step keeps every by[i]-th element along axis i.
func (e *Expr) Step(by ...int) *Expr {
	if e.err != nil {
		return e
	}
	if len(by) != len(e.dims) {
		return invalid(errors.ShapeMismatch(errors.PhaseCompile, len(by), len(e.dims)))
	}
	dims := make([]int, len(by))
	for i, b := range by {
		if b <= 0 {
			return buildError(errors.KindInvalidData, "step", "step %d on axis %d must be positive", b, i)
		}
		dims[i] = (e.dims[i] + b - 1) / b
	}
	out := derive(KindStep, e.dtype, dims, e)
	out.by = slices.Clone(by)
	return out
}
