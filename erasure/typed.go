package erasure

import (
	"fmt"

	"github.com/wippyai/cayley/array"
)

// Tag identifies the concrete array type hidden behind an erased value.
type Tag struct {
	DType array.DType
	Rank  int
}

func (t Tag) String() string {
	return fmt.Sprintf("%s[%d]", t.DType, t.Rank)
}

// TagOf returns the tag of Array[T, S].
func TagOf[T array.Elem, S array.Shape]() Tag {
	return Tag{DType: array.DTypeOf[T](), Rank: array.Rank[S]()}
}

// ranked is the capability a rank-erased array exposes.
type ranked[T array.Elem] interface {
	shape() []int
	data() []T
	clone() ranked[T]
	String() string
}

type rankedArray[T array.Elem, S array.Shape] struct {
	a *array.Array[T, S]
}

func (r *rankedArray[T, S]) shape() []int { return array.Dims(r.a.Shape()) }
func (r *rankedArray[T, S]) data() []T { return r.a.Data() }
func (r *rankedArray[T, S]) clone() ranked[T] { return &rankedArray[T, S]{a: r.a.Clone()} }
func (r *rankedArray[T, S]) String() string { return r.a.String() }

// TypedArray owns an array of element type T whose rank is only known at
// run time through its tag.
type TypedArray[T array.Elem] struct {
	tag  Tag
	impl ranked[T]
}

// Erase moves a into a rank-erased TypedArray. The buffer is not copied;
// a is left empty.
func Erase[T array.Elem, S array.Shape](a *array.Array[T, S]) *TypedArray[T] {
	return &TypedArray[T]{
		tag:  TagOf[T, S](),
		impl: &rankedArray[T, S]{a: a.Take()},
	}
}

// Tag returns the (dtype, rank) tag.
func (t *TypedArray[T]) Tag() Tag { return t.tag }

// DType returns the element type tag.
func (t *TypedArray[T]) DType() array.DType { return t.tag.DType }

// Rank returns the number of axes.
func (t *TypedArray[T]) Rank() int { return t.tag.Rank }

// Valid reports whether t still owns an array.
func (t *TypedArray[T]) Valid() bool { return t != nil && t.impl != nil }

// Shape returns the extents of every axis, or nil once consumed.
func (t *TypedArray[T]) Shape() []int {
	if !t.Valid() {
		return nil
	}
	return t.impl.shape()
}

// Data returns the row-major buffer, or nil once consumed.
func (t *TypedArray[T]) Data() []T {
	if !t.Valid() {
		return nil
	}
	return t.impl.data()
}

// Len returns the number of elements.
func (t *TypedArray[T]) Len() int { return len(t.Data()) }

// Clone deep-copies the array and its tag.
func (t *TypedArray[T]) Clone() *TypedArray[T] {
	if !t.Valid() {
		return &TypedArray[T]{tag: t.tag}
	}
	return &TypedArray[T]{tag: t.tag, impl: t.impl.clone()}
}

// UnsafeBytes exposes the buffer as raw host-order bytes; see
// array.UnsafeBytes for the caller's obligations.
func (t *TypedArray[T]) UnsafeBytes() []byte {
	if !t.Valid() {
		return nil
	}
	return array.UnsafeSliceBytes(t.Data())
}

func (t *TypedArray[T]) String() string {
	if !t.Valid() {
		return t.tag.String() + "<consumed>"
	}
	return t.impl.String()
}

// ArrayOf recovers the array if t has rank S. On success t is consumed; on
// a tag mismatch it returns (nil, false) and t is left intact.
func ArrayOf[S array.Shape, T array.Elem](t *TypedArray[T]) (*array.Array[T, S], bool) {
	a, ok := ArrayRef[S](t)
	if !ok {
		return nil, false
	}
	t.impl = nil
	return a, true
}

// ArrayRef borrows the array if t has rank S. The result aliases t and may
// be mutated in place; it returns (nil, false) on a tag mismatch.
func ArrayRef[S array.Shape, T array.Elem](t *TypedArray[T]) (*array.Array[T, S], bool) {
	if !t.Valid() || t.tag.Rank != array.Rank[S]() {
		return nil, false
	}
	r, ok := t.impl.(*rankedArray[T, S])
	if !ok {
		return nil, false
	}
	return r.a, true
}
