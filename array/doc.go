// Package array implements fixed-rank N-dimensional arrays over contiguous
// row-major storage, strided views and a lazy pull-based iteration layer.
//
// The rank is part of the type: an Array[T, [3]int] is always three
// dimensional. Views alias the owning buffer; Map, Zip and ZipWith compose
// Accessors without allocating, and Fold, ToSlice and ToArray drive the
// pipeline to completion in row-major order.
//
//	a := array.FromSlice([2]int{4, 4}, data)
//	v := a.View(array.Between(1, 3), array.Between(1, 3))
//	sum := array.Fold(array.ZipWith(v, v, func(x, y int32) int32 { return x * y }),
//		int32(0), func(acc, x int32) int32 { return acc + x })
//
// Shape and range violations are programming errors. They panic with an
// *errors.Error of kind shape_mismatch or out_of_range; ResolveRange is the
// non-panicking entry point for untrusted bounds.
package array
