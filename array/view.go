package array

import (
	"fmt"

	"github.com/wippyai/cayley/errors"
)

// View is a borrowed, possibly non-contiguous window into an array buffer.
// It is only valid while the buffer it was taken from is alive, and writes
// through overlapping views are not detected.
type View[T any, S Shape] struct {
	data    []T
	base    int
	shape   S
	strides S
}

// NewView builds a view over data with explicit shape and strides. Strides
// may be zero or negative.
func NewView[T any, S Shape](data []T, base int, shape, strides S) View[T, S] {
	return View[T, S]{data: data, base: base, shape: shape, strides: strides}
}

func (v View[T, S]) Shape() S   { return v.shape }
func (v View[T, S]) Strides() S { return v.strides }

// Len returns the number of elements visited by the view.
func (v View[T, S]) Len() int { return Size(v.shape) }

// At returns the element at pos relative to the view origin.
func (v View[T, S]) At(pos S) T {
	return v.data[v.base+dot(v.strides, pos)]
}

// Sub narrows the view to the resolved spans.
func (v View[T, S]) Sub(spans ...Span) View[T, S] {
	r := mustResolve(errors.PhaseView, v.shape, spans)
	return View[T, S]{
		data:    v.data,
		base:    v.base + dot(v.strides, r.Start),
		shape:   r.Shape(),
		strides: v.strides,
	}
}

// Flip reverses every axis whose mask entry is set.
func (v View[T, S]) Flip(mask ...bool) View[T, S] {
	if len(mask) != len(v.shape) {
		panic(errors.ShapeMismatch(errors.PhaseView, len(mask), len(v.shape)))
	}
	var pos S
	strides := v.strides
	for i := 0; i < len(strides); i++ {
		if mask[i] && v.shape[i] > 0 {
			pos[i] = v.shape[i] - 1
			strides[i] = -strides[i]
		}
	}
	return View[T, S]{
		data:    v.data,
		base:    v.base + dot(v.strides, pos),
		shape:   v.shape,
		strides: strides,
	}
}

// Step keeps every by[i]-th position of axis i, starting at the first.
func (v View[T, S]) Step(by S) View[T, S] {
	shape := v.shape
	strides := v.strides
	for i := 0; i < len(shape); i++ {
		if by[i] <= 0 {
			panic(errors.InvalidData(errors.PhaseView, []string{fmt.Sprintf("axis%d", i)},
				fmt.Sprintf("step %d must be positive", by[i])))
		}
		shape[i] = (shape[i] + by[i] - 1) / by[i]
		strides[i] *= by[i]
	}
	return View[T, S]{data: v.data, base: v.base, shape: shape, strides: strides}
}

// Expand repeats size-1 axes to the extents of shape. Every other axis must
// already match.
func (v View[T, S]) Expand(shape S) View[T, S] {
	strides := v.strides
	for i := 0; i < len(shape); i++ {
		if v.shape[i] == 1 {
			strides[i] = 0
		} else if v.shape[i] != shape[i] {
			panic(errors.ShapeMismatch(errors.PhaseView, v.shape, shape))
		}
	}
	return View[T, S]{data: v.data, base: v.base, shape: shape, strides: strides}
}

// Accessor implements Iterable.
func (v View[T, S]) Accessor() Accessor[T] {
	return &viewAccessor[T, S]{data: v.data, base: v.base, strides: v.strides}
}

func (v View[T, S]) String() string {
	return fmt.Sprint(ToSlice[T, S](v))
}
