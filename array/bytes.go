package array

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/cayley/errors"
)

// UnsafeBytes reinterprets the buffer of a as raw bytes in host byte order.
// The returned slice aliases the array. The caller alone is responsible for
// respecting the element type, count and byte order on the other side of
// whatever byte-oriented boundary the bytes cross.
func UnsafeBytes[T Elem, S Shape](a *Array[T, S]) []byte {
	return UnsafeSliceBytes(a.data)
}

// UnsafeSliceBytes is UnsafeBytes for a bare slice.
func UnsafeSliceBytes[T Elem](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	n := len(data) * int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), n)
}

// UnsafeSliceFromBytes copies raw host-order bytes into a new []T. The
// length of raw must be a multiple of the element size.
func UnsafeSliceFromBytes[T Elem](raw []byte) ([]T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(raw)%size != 0 {
		return nil, errors.InvalidData(errors.PhaseErase, []string{DTypeOf[T]().String()},
			fmt.Sprintf("%d bytes is not a multiple of element size %d", len(raw), size))
	}
	out := make([]T, len(raw)/size)
	copy(UnsafeSliceBytes(out), raw)
	return out, nil
}
