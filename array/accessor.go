package array

import (
	"github.com/wippyai/cayley/errors"
)

// Accessor is a pull cursor over array elements. The iteration driver
// calls Step(axis) when the index along axis advances by one and Init(axis)
// for every inner axis that was reset by a carry.
type Accessor[T any] interface {
	Init(axis int)
	Step(axis int)
	Item() T
}

// Iterable is anything with a shape that can produce an Accessor visiting
// its elements in row-major order.
type Iterable[T any, S Shape] interface {
	Shape() S
	Accessor() Accessor[T]
}

type flatAccessor[T any] struct {
	data []T
	pos  int
}

func (a *flatAccessor[T]) Init(int) {}

func (a *flatAccessor[T]) Step(int) {
	a.pos++
}

func (a *flatAccessor[T]) Item() T {
	return a.data[a.pos]
}

// viewAccessor keeps one running offset per axis; the innermost one
// addresses the current element.
type viewAccessor[T any, S Shape] struct {
	data    []T
	base    int
	strides S
	offsets S
}

func (a *viewAccessor[T, S]) Init(axis int) {
	if axis == 0 {
		a.offsets[0] = 0
	} else {
		a.offsets[axis] = a.offsets[axis-1]
	}
}

func (a *viewAccessor[T, S]) Step(axis int) {
	a.offsets[axis] += a.strides[axis]
}

func (a *viewAccessor[T, S]) Item() T {
	return a.data[a.base+a.offsets[len(a.offsets)-1]]
}

// Mapped applies a transform lazily to every element of its source.
type Mapped[T, U any, S Shape] struct {
	src Iterable[T, S]
	f   func(T) U
}

// Map returns a lazy elementwise transform of src.
func Map[T, U any, S Shape](src Iterable[T, S], f func(T) U) *Mapped[T, U, S] {
	return &Mapped[T, U, S]{src: src, f: f}
}

func (m *Mapped[T, U, S]) Shape() S {
	return m.src.Shape()
}

func (m *Mapped[T, U, S]) Accessor() Accessor[U] {
	return &mapAccessor[T, U]{inner: m.src.Accessor(), f: m.f}
}

type mapAccessor[T, U any] struct {
	inner Accessor[T]
	f     func(T) U
}

func (a *mapAccessor[T, U]) Init(axis int) { a.inner.Init(axis) }
func (a *mapAccessor[T, U]) Step(axis int) { a.inner.Step(axis) }
func (a *mapAccessor[T, U]) Item() U       { return a.f(a.inner.Item()) }

// Pair is one element of a zipped iteration.
type Pair[T, U any] struct {
	First  T
	Second U
}

// Zipped walks two iterables of identical shape in lockstep.
type Zipped[T, U any, S Shape] struct {
	first  Iterable[T, S]
	second Iterable[U, S]
}

// Zip pairs the elements of a and b. It panics with KindShapeMismatch when
// the shapes differ; it never truncates to the shorter one.
func Zip[T, U any, S Shape](a Iterable[T, S], b Iterable[U, S]) *Zipped[T, U, S] {
	if a.Shape() != b.Shape() {
		panic(errors.ShapeMismatch(errors.PhaseIterate, b.Shape(), a.Shape()))
	}
	return &Zipped[T, U, S]{first: a, second: b}
}

func (z *Zipped[T, U, S]) Shape() S {
	return z.first.Shape()
}

func (z *Zipped[T, U, S]) Accessor() Accessor[Pair[T, U]] {
	return &zipAccessor[T, U]{first: z.first.Accessor(), second: z.second.Accessor()}
}

type zipAccessor[T, U any] struct {
	first  Accessor[T]
	second Accessor[U]
}

func (a *zipAccessor[T, U]) Init(axis int) {
	a.first.Init(axis)
	a.second.Init(axis)
}

func (a *zipAccessor[T, U]) Step(axis int) {
	a.first.Step(axis)
	a.second.Step(axis)
}

func (a *zipAccessor[T, U]) Item() Pair[T, U] {
	return Pair[T, U]{First: a.first.Item(), Second: a.second.Item()}
}

// ZipWith combines a and b elementwise with f.
func ZipWith[T, U, V any, S Shape](a Iterable[T, S], b Iterable[U, S], f func(T, U) V) *Mapped[Pair[T, U], V, S] {
	return Map[Pair[T, U], V, S](Zip(a, b), func(p Pair[T, U]) V {
		return f(p.First, p.Second)
	})
}
