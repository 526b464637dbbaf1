package array

import "iter"

// Iterator drives an Accessor over a shape in row-major order, the last
// axis varying fastest.
type Iterator[T any, S Shape] struct {
	acc       Accessor[T]
	shape     S
	index     S
	remaining int
}

// NewIterator starts a fresh pass over it.
func NewIterator[T any, S Shape](it Iterable[T, S]) *Iterator[T, S] {
	shape := it.Shape()
	return &Iterator[T, S]{
		acc:       it.Accessor(),
		shape:     shape,
		remaining: Size(shape),
	}
}

// Remaining returns the number of elements not yet yielded.
func (it *Iterator[T, S]) Remaining() int {
	return it.remaining
}

// Next yields the current element and advances the cursor.
func (it *Iterator[T, S]) Next() (T, bool) {
	if it.remaining == 0 {
		var zero T
		return zero, false
	}
	v := it.acc.Item()
	it.remaining--
	if it.remaining > 0 {
		it.advance()
	}
	return v, true
}

// advance increments the multi-index like an odometer. The axis that
// absorbs the increment is stepped; every inner axis that wrapped to zero
// is re-initialised from its parent, since strided views are not
// contiguous across axis boundaries.
func (it *Iterator[T, S]) advance() {
	last := len(it.shape) - 1
	for d := last; d >= 0; d-- {
		it.index[d]++
		if it.index[d] < it.shape[d] {
			it.acc.Step(d)
			for i := d + 1; i <= last; i++ {
				it.acc.Init(i)
			}
			return
		}
		it.index[d] = 0
	}
}

// Seq returns the elements of it as a range-over-func sequence.
func Seq[T any, S Shape](it Iterable[T, S]) iter.Seq[T] {
	return func(yield func(T) bool) {
		cur := NewIterator(it)
		for v, ok := cur.Next(); ok; v, ok = cur.Next() {
			if !yield(v) {
				return
			}
		}
	}
}

// Fold reduces it in row-major order.
func Fold[T, A any, S Shape](it Iterable[T, S], init A, f func(A, T) A) A {
	acc := init
	cur := NewIterator(it)
	for v, ok := cur.Next(); ok; v, ok = cur.Next() {
		acc = f(acc, v)
	}
	return acc
}

// ToSlice materialises it into a new slice.
func ToSlice[T any, S Shape](it Iterable[T, S]) []T {
	cur := NewIterator(it)
	out := make([]T, 0, cur.Remaining())
	for v, ok := cur.Next(); ok; v, ok = cur.Next() {
		out = append(out, v)
	}
	return out
}

// ToArray materialises it into a new array of the same shape.
func ToArray[T any, S Shape](it Iterable[T, S]) *Array[T, S] {
	out := New[T](it.Shape())
	out.AssignAll(it)
	return out
}
