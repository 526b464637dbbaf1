package array

import (
	"fmt"
	"math"
	"slices"

	"github.com/wippyai/cayley/errors"
)

// MaxRank is the highest supported rank.
const MaxRank = 5

// Shape is the set of fixed-rank extent vectors. The rank of an array is the
// length of its shape type and never changes after construction.
type Shape interface {
	[1]int | [2]int | [3]int | [4]int | [5]int
}

// Rank returns the number of axes of S.
func Rank[S Shape]() int {
	var s S
	return len(s)
}

// Size returns the number of elements described by shape. It panics with
// KindInvalidData when an extent is negative or the product overflows int.
func Size[S Shape](shape S) int {
	n, err := CheckedSize(shape)
	if err != nil {
		panic(err)
	}
	return n
}

// CheckedSize is Size for untrusted shapes.
func CheckedSize[S Shape](shape S) (int, error) {
	var dims [MaxRank]int
	for i := 0; i < len(shape); i++ {
		dims[i] = shape[i]
	}
	return CheckedSizeOf(dims[:len(shape)])
}

// Strides returns the row-major suffix products of shape.
func Strides[S Shape](shape S) S {
	var strides S
	strides[len(strides)-1] = 1
	for i := len(shape) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * shape[i+1]
	}
	return strides
}

// Dims converts a fixed shape into a slice.
func Dims[S Shape](shape S) []int {
	out := make([]int, len(shape))
	for i := range out {
		out[i] = shape[i]
	}
	return out
}

// ShapeOf converts dims into a fixed shape of rank S.
func ShapeOf[S Shape](dims []int) (S, error) {
	var shape S
	if len(dims) != len(shape) {
		return shape, errors.New(errors.PhaseView, errors.KindShapeMismatch).
			Have(fmt.Sprintf("rank %d", len(dims))).
			Want(fmt.Sprintf("rank %d", len(shape))).
			Build()
	}
	for i := range dims {
		if dims[i] < 0 {
			return shape, errors.InvalidData(errors.PhaseView, []string{fmt.Sprintf("axis%d", i)},
				fmt.Sprintf("negative extent %d", dims[i]))
		}
		shape[i] = dims[i]
	}
	if _, err := CheckedSizeOf(dims); err != nil {
		return shape, err
	}
	return shape, nil
}

// SizeOf returns the product of dims. It panics like Size.
func SizeOf(dims []int) int {
	n, err := CheckedSizeOf(dims)
	if err != nil {
		panic(err)
	}
	return n
}

// CheckedSizeOf returns the product of dims, failing with KindInvalidData on
// a negative extent or when the product does not fit in int. Any zero extent
// makes the product zero regardless of the others.
func CheckedSizeOf(dims []int) (int, error) {
	for i, d := range dims {
		if d < 0 {
			return 0, errors.InvalidData(errors.PhaseView, []string{fmt.Sprintf("axis%d", i)},
				fmt.Sprintf("negative extent %d", d))
		}
	}
	if slices.Contains(dims, 0) {
		return 0, nil
	}
	n := 1
	for _, d := range dims {
		if n > math.MaxInt/d {
			return 0, errors.New(errors.PhaseView, errors.KindInvalidData).
				Value(append([]int(nil), dims...)).
				Detail("element count of shape %v overflows int", dims).
				Build()
		}
		n *= d
	}
	return n, nil
}

func dot[S Shape](a, b S) int {
	ret := 0
	for i := 0; i < len(a); i++ {
		ret += a[i] * b[i]
	}
	return ret
}
