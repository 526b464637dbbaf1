package erasure

import (
	"fmt"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/errors"
)

// erased is the capability every TypedArray exposes once T is hidden.
type erased interface {
	Tag() Tag
	Valid() bool
	Shape() []int
	Len() int
	UnsafeBytes() []byte
	String() string
	cloneErased() erased
}

func (t *TypedArray[T]) cloneErased() erased { return t.Clone() }

// AnyArray owns an array whose element type and rank are both only known
// at run time. It is the value type of the interpreter stack.
type AnyArray struct {
	dtype array.DType
	impl  erased
}

// New erases both the element type and the rank of a. The buffer moves;
// a is left empty.
func New[T array.Elem, S array.Shape](a *array.Array[T, S]) *AnyArray {
	return FromTyped(Erase(a))
}

// FromTyped erases the element type of t, consuming it.
func FromTyped[T array.Elem](t *TypedArray[T]) *AnyArray {
	moved := &TypedArray[T]{tag: t.tag, impl: t.impl}
	t.impl = nil
	return &AnyArray{dtype: t.tag.DType, impl: moved}
}

// DType returns the element type tag.
func (a *AnyArray) DType() array.DType { return a.dtype }

// Tag returns the (dtype, rank) tag.
func (a *AnyArray) Tag() Tag {
	if a.impl == nil {
		return Tag{DType: a.dtype}
	}
	return a.impl.Tag()
}

// Rank returns the number of axes, or 0 once consumed.
func (a *AnyArray) Rank() int { return a.Tag().Rank }

// Valid reports whether a still owns an array.
func (a *AnyArray) Valid() bool { return a != nil && a.impl != nil && a.impl.Valid() }

// Shape returns the extents of every axis.
func (a *AnyArray) Shape() []int {
	if !a.Valid() {
		return nil
	}
	return a.impl.Shape()
}

// Len returns the number of elements.
func (a *AnyArray) Len() int {
	if !a.Valid() {
		return 0
	}
	return a.impl.Len()
}

// Clone deep-copies the array.
func (a *AnyArray) Clone() *AnyArray {
	if !a.Valid() {
		return &AnyArray{dtype: a.dtype}
	}
	return &AnyArray{dtype: a.dtype, impl: a.impl.cloneErased()}
}

// UnsafeBytes exposes the buffer as raw host-order bytes.
func (a *AnyArray) UnsafeBytes() []byte {
	if !a.Valid() {
		return nil
	}
	return a.impl.UnsafeBytes()
}

func (a *AnyArray) String() string {
	if !a.Valid() {
		return a.dtype.String() + "<consumed>"
	}
	return a.impl.String()
}

// TypedOf recovers the element type T. On success a is consumed; on a
// mismatch it returns (nil, false) and a is left intact.
func TypedOf[T array.Elem](a *AnyArray) (*TypedArray[T], bool) {
	t, ok := TypedRef[T](a)
	if !ok {
		return nil, false
	}
	a.impl = nil
	return t, true
}

// TypedRef borrows the typed stage without consuming a.
func TypedRef[T array.Elem](a *AnyArray) (*TypedArray[T], bool) {
	if !a.Valid() || a.dtype != array.DTypeOf[T]() {
		return nil, false
	}
	t, ok := a.impl.(*TypedArray[T])
	return t, ok
}

// Recover runs both recovery stages and returns the concrete array. On
// success a is consumed; on any mismatch a is left intact.
func Recover[T array.Elem, S array.Shape](a *AnyArray) (*array.Array[T, S], bool) {
	if !Is[T, S](a) {
		return nil, false
	}
	t, _ := TypedOf[T](a)
	return ArrayOf[S](t)
}

// RecoverRef borrows the concrete array without consuming a.
func RecoverRef[T array.Elem, S array.Shape](a *AnyArray) (*array.Array[T, S], bool) {
	t, ok := TypedRef[T](a)
	if !ok {
		return nil, false
	}
	return ArrayRef[S](t)
}

// Is reports whether a holds an Array[T, S].
func Is[T array.Elem, S array.Shape](a *AnyArray) bool {
	return a.Valid() && a.Tag() == TagOf[T, S]()
}

// FromSlice builds an AnyArray from a run-time shape. data is used as the
// buffer without copying.
func FromSlice[T array.Elem](shape []int, data []T) (*AnyArray, error) {
	switch len(shape) {
	case 1:
		return fromDims[T, [1]int](shape, data)
	case 2:
		return fromDims[T, [2]int](shape, data)
	case 3:
		return fromDims[T, [3]int](shape, data)
	case 4:
		return fromDims[T, [4]int](shape, data)
	case 5:
		return fromDims[T, [5]int](shape, data)
	default:
		return nil, errors.Unsupported(errors.PhaseErase,
			fmt.Sprintf("rank %d outside 1..%d", len(shape), array.MaxRank))
	}
}

func fromDims[T array.Elem, S array.Shape](dims []int, data []T) (*AnyArray, error) {
	shape, err := array.ShapeOf[S](dims)
	if err != nil {
		return nil, err
	}
	if n := array.Size(shape); n != len(data) {
		return nil, errors.New(errors.PhaseErase, errors.KindShapeMismatch).
			Have(fmt.Sprintf("%d elements", len(data))).
			Want(fmt.Sprintf("%d elements", n)).
			Detail("shape %v", dims).
			Build()
	}
	return New(array.FromSlice(shape, data)), nil
}

// UnsafeFromBytes copies raw host-order bytes into a new array of the given
// dtype and shape.
func UnsafeFromBytes(dtype array.DType, shape []int, raw []byte) (*AnyArray, error) {
	switch dtype {
	case array.Bool:
		return fromBytes[bool](shape, raw)
	case array.Int8:
		return fromBytes[int8](shape, raw)
	case array.Int16:
		return fromBytes[int16](shape, raw)
	case array.Int32:
		return fromBytes[int32](shape, raw)
	case array.Int64:
		return fromBytes[int64](shape, raw)
	case array.Uint8:
		return fromBytes[uint8](shape, raw)
	case array.Uint16:
		return fromBytes[uint16](shape, raw)
	case array.Uint32:
		return fromBytes[uint32](shape, raw)
	case array.Uint64:
		return fromBytes[uint64](shape, raw)
	case array.Float32:
		return fromBytes[float32](shape, raw)
	case array.Float64:
		return fromBytes[float64](shape, raw)
	default:
		return nil, errors.Unsupported(errors.PhaseErase, "dtype "+dtype.String())
	}
}

func fromBytes[T array.Elem](shape []int, raw []byte) (*AnyArray, error) {
	data, err := array.UnsafeSliceFromBytes[T](raw)
	if err != nil {
		return nil, err
	}
	return FromSlice(shape, data)
}
