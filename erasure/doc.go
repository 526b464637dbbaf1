// Package erasure hides the static type of an array in two stages.
//
// TypedArray[T] forgets the rank of an Array[T, S] and keeps it as a run
// time tag. AnyArray then forgets the element type as well. Each stage can
// be undone by naming the expected type:
//
//	a := erasure.New(array.Fill([1]int{4}, int32(1)))
//	arr, ok := erasure.Recover[int32, [1]int](a) // [1, 1, 1, 1], true
//
// Recovery compares the stored tag before touching the value. A mismatch
// returns (nil, false) and leaves the source intact; a match on the owning
// variants moves the array out and leaves the source consumed. The Ref
// variants borrow instead.
package erasure
