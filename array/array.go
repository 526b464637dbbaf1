package array

import (
	"fmt"
	"iter"
	"strings"

	"github.com/wippyai/cayley/errors"
)

// Array owns a contiguous row-major buffer of product(shape) elements.
type Array[T any, S Shape] struct {
	shape S
	data  []T
}

// New allocates a zero-filled array.
func New[T any, S Shape](shape S) *Array[T, S] {
	return &Array[T, S]{shape: shape, data: make([]T, Size(shape))}
}

// Fill allocates an array with every element set to value.
func Fill[T any, S Shape](shape S, value T) *Array[T, S] {
	data := make([]T, Size(shape))
	for i := range data {
		data[i] = value
	}
	return &Array[T, S]{shape: shape, data: data}
}

// FromSlice takes ownership of data. It panics when len(data) does not equal
// the product of shape.
func FromSlice[T any, S Shape](shape S, data []T) *Array[T, S] {
	if len(data) != Size(shape) {
		panic(errors.New(errors.PhaseView, errors.KindShapeMismatch).
			Have(fmt.Sprintf("%d elements", len(data))).
			Want(fmt.Sprintf("%d elements for %v", Size(shape), shape)).
			Build())
	}
	return &Array[T, S]{shape: shape, data: data}
}

// FromSeq collects values into an array of the given shape.
func FromSeq[T any, S Shape](shape S, values iter.Seq[T]) *Array[T, S] {
	data := make([]T, 0, Size(shape))
	for v := range values {
		data = append(data, v)
	}
	return FromSlice(shape, data)
}

// Reshape moves the buffer of a into an array of a new shape with the same
// element count. a is left empty.
func Reshape[K Shape, T any, S Shape](a *Array[T, S], shape K) *Array[T, K] {
	if Size(shape) != Size(a.shape) {
		panic(errors.ShapeMismatch(errors.PhaseView, a.shape, shape))
	}
	out := &Array[T, K]{shape: shape, data: a.data}
	*a = Array[T, S]{}
	return out
}

// Shape returns the extent of every axis.
func (a *Array[T, S]) Shape() S {
	return a.shape
}

// Len returns the number of elements.
func (a *Array[T, S]) Len() int {
	return len(a.data)
}

// Data returns the backing buffer in row-major order.
func (a *Array[T, S]) Data() []T {
	return a.data
}

// Strides returns the row-major strides.
func (a *Array[T, S]) Strides() S {
	return Strides(a.shape)
}

// Offset returns the flat buffer index of pos.
func (a *Array[T, S]) Offset(pos S) int {
	ret := pos[0]
	for d := 1; d < len(pos); d++ {
		ret = ret*a.shape[d] + pos[d]
	}
	return ret
}

// At returns the element at pos. Only the flat index is bounds checked.
func (a *Array[T, S]) At(pos S) T {
	return a.data[a.Offset(pos)]
}

// Set stores v at pos. Only the flat index is bounds checked.
func (a *Array[T, S]) Set(pos S, v T) {
	a.data[a.Offset(pos)] = v
}

// Clone returns a deep copy.
func (a *Array[T, S]) Clone() *Array[T, S] {
	data := make([]T, len(a.data))
	copy(data, a.data)
	return &Array[T, S]{shape: a.shape, data: data}
}

// Take moves the contents of a into a new Array and leaves a empty.
func (a *Array[T, S]) Take() *Array[T, S] {
	out := &Array[T, S]{shape: a.shape, data: a.data}
	*a = Array[T, S]{}
	return out
}

// View returns a window over the resolved spans. The view aliases the
// buffer of a. It panics with KindOutOfRange if a span leaves its axis.
func (a *Array[T, S]) View(spans ...Span) View[T, S] {
	r := mustResolve(errors.PhaseView, a.shape, spans)
	return a.ViewRange(r)
}

// ViewRange returns a window over an already resolved range.
func (a *Array[T, S]) ViewRange(r Range[S]) View[T, S] {
	return View[T, S]{
		data:    a.data,
		base:    a.Offset(r.Start),
		shape:   r.Shape(),
		strides: a.Strides(),
	}
}

// All returns a view over the whole array.
func (a *Array[T, S]) All() View[T, S] {
	return a.ViewRange(FullRange(a.shape))
}

// Assign writes values into the region selected by spans. The shape of
// values must equal the shape of the resolved region.
func (a *Array[T, S]) Assign(values Iterable[T, S], spans ...Span) {
	r := mustResolve(errors.PhaseAssign, a.shape, spans)
	a.AssignRange(r, values)
}

// AssignRange writes values into r, walking the destination in row-major
// order with one running offset per axis.
func (a *Array[T, S]) AssignRange(r Range[S], values Iterable[T, S]) {
	shape := r.Shape()
	if shape != values.Shape() {
		panic(errors.ShapeMismatch(errors.PhaseAssign, values.Shape(), shape))
	}
	if Size(shape) == 0 {
		return
	}

	last := len(shape) - 1
	strides := a.Strides()
	var offsets, indices S

	data := a.data[a.Offset(r.Start):]
	it := NewIterator(values)
	for v, ok := it.Next(); ok; v, ok = it.Next() {
		data[offsets[last]] = v
		for d := last; d >= 0; d-- {
			indices[d]++
			if indices[d] < shape[d] {
				offsets[d] += strides[d]
				for i := d + 1; i <= last; i++ {
					offsets[i] = offsets[d]
					indices[i] = 0
				}
				break
			}
		}
	}
}

// AssignAll overwrites the whole array with values.
func (a *Array[T, S]) AssignAll(values Iterable[T, S]) {
	if a.shape != values.Shape() {
		panic(errors.ShapeMismatch(errors.PhaseAssign, values.Shape(), a.shape))
	}
	i := 0
	it := NewIterator(values)
	for v, ok := it.Next(); ok; v, ok = it.Next() {
		a.data[i] = v
		i++
	}
}

// Accessor implements Iterable with a flat cursor over the buffer.
func (a *Array[T, S]) Accessor() Accessor[T] {
	return &flatAccessor[T]{data: a.data}
}

func (a *Array[T, S]) String() string {
	parts := make([]string, len(a.data))
	for i, v := range a.data {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
