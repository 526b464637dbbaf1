package interp

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/wippyai/cayley/array"
)

var (
	table     []Op
	tableOnce sync.Once
)

// Table returns the global operation table sorted by name. An opcode is
// the index of its operation in this table. The table is built on first
// use and never changes afterwards.
func Table() []Op {
	tableOnce.Do(func() {
		table = buildTable()
	})
	return table
}

type registry struct {
	ops []Op
}

func (r *registry) add(family string, dtype array.DType, rank int, h Handler, operands ...Operand) {
	r.ops = append(r.ops, Op{
		Name:     fmt.Sprintf("%s_%s_%d", family, dtype, rank),
		Family:   family,
		DType:    dtype,
		Rank:     rank,
		Operands: operands,
		Handler:  h,
	})
}

func buildTable() []Op {
	r := &registry{}

	registerBool(r)
	registerInteger[int8](r)
	registerInteger[int16](r)
	registerInteger[int32](r)
	registerInteger[int64](r)
	registerInteger[uint8](r)
	registerInteger[uint16](r)
	registerInteger[uint32](r)
	registerInteger[uint64](r)
	registerFloat[float32](r)
	registerFloat[float64](r)

	slices.SortFunc(r.ops, func(a, b Op) int {
		return strings.Compare(a.Name, b.Name)
	})
	return r.ops
}

func registerBool(r *registry) {
	boolRank[[1]int](r)
	boolRank[[2]int](r)
	boolRank[[3]int](r)
	boolRank[[4]int](r)
	boolRank[[5]int](r)
}

func registerInteger[T array.Integer](r *registry) {
	integerRank[T, [1]int](r)
	integerRank[T, [2]int](r)
	integerRank[T, [3]int](r)
	integerRank[T, [4]int](r)
	integerRank[T, [5]int](r)
}

func registerFloat[T array.Float](r *registry) {
	floatRank[T, [1]int](r)
	floatRank[T, [2]int](r)
	floatRank[T, [3]int](r)
	floatRank[T, [4]int](r)
	floatRank[T, [5]int](r)
}

func boolRank[S array.Shape](r *registry) {
	structural[bool, S](r)
	comparisons[bool, S](r,
		func(x, y bool) bool { return x && !y },
		func(x, y bool) bool { return !x && y },
		func(x, y bool) bool { return x || !y },
		func(x, y bool) bool { return !x || y },
	)

	rank := array.Rank[S]()
	r.add("not", array.Bool, rank, unaryOp[bool, bool, S](func(x bool) bool { return !x }))
	r.add("and", array.Bool, rank, binaryOp[bool, bool, S](func(x, y bool) bool { return x && y }))
	r.add("or", array.Bool, rank, binaryOp[bool, bool, S](func(x, y bool) bool { return x || y }))
	r.add("xor", array.Bool, rank, binaryOp[bool, bool, S](func(x, y bool) bool { return x != y }))

	boolCast[int8, S](r)
	boolCast[int16, S](r)
	boolCast[int32, S](r)
	boolCast[int64, S](r)
	boolCast[uint8, S](r)
	boolCast[uint16, S](r)
	boolCast[uint32, S](r)
	boolCast[uint64, S](r)
}

func integerRank[T array.Integer, S array.Shape](r *registry) {
	structural[T, S](r)
	comparisons[T, S](r, greater[T], less[T], greaterEq[T], lessEq[T])
	arithmetic[T, S](r, func(x, y T) T { return x % y })
	extrema[T, S](r)
	numericCasts[T, S](r)

	dtype, rank := array.DTypeOf[T](), array.Rank[S]()
	r.add("neg", dtype, rank, unaryOp[T, T, S](func(x T) T { return ^x }))
	r.add("bit_and", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x & y }))
	r.add("bit_or", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x | y }))
	r.add("bit_xor", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x ^ y }))
	r.add("shl", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x << y }))
	r.add("shr", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x >> y }))
}

func floatRank[T array.Float, S array.Shape](r *registry) {
	structural[T, S](r)
	comparisons[T, S](r, greater[T], less[T], greaterEq[T], lessEq[T])
	arithmetic[T, S](r, func(x, y T) T { return T(math.Mod(float64(x), float64(y))) })
	extrema[T, S](r)
	numericCasts[T, S](r)
}

// structural registers the data movement ops every element type has.
func structural[T array.Elem, S array.Shape](r *registry) {
	dtype, rank := array.DTypeOf[T](), array.Rank[S]()
	shape := Operand{Kind: OperandShape, Rank: rank}
	rng := Operand{Kind: OperandRange, Rank: rank}

	r.add("ref", dtype, rank, refOp[T, S](), Operand{Kind: OperandRef})
	r.add("merge", dtype, rank, mergeOp[T, S](), rng)
	r.add("slice", dtype, rank, sliceOp[T, S](), rng)
	r.add("expand", dtype, rank, expandOp[T, S](), shape)
	r.add("flip", dtype, rank, flipOp[T, S](), Operand{Kind: OperandMask, Rank: rank})
	r.add("step", dtype, rank, stepOp[T, S](), shape)
	r.add("fill", dtype, rank, fillOp[T, S](), shape, Operand{Kind: OperandValue, DType: dtype})

	r.add("reshape_1", dtype, rank, reshapeOp[T, S, [1]int](), Operand{Kind: OperandShape, Rank: 1})
	r.add("reshape_2", dtype, rank, reshapeOp[T, S, [2]int](), Operand{Kind: OperandShape, Rank: 2})
	r.add("reshape_3", dtype, rank, reshapeOp[T, S, [3]int](), Operand{Kind: OperandShape, Rank: 3})
	r.add("reshape_4", dtype, rank, reshapeOp[T, S, [4]int](), Operand{Kind: OperandShape, Rank: 4})
	r.add("reshape_5", dtype, rank, reshapeOp[T, S, [5]int](), Operand{Kind: OperandShape, Rank: 5})
}

func comparisons[T array.Elem, S array.Shape](r *registry, gt, lt, ge, le func(T, T) bool) {
	dtype, rank := array.DTypeOf[T](), array.Rank[S]()
	r.add("gt", dtype, rank, binaryOp[T, bool, S](gt))
	r.add("lt", dtype, rank, binaryOp[T, bool, S](lt))
	r.add("ge", dtype, rank, binaryOp[T, bool, S](ge))
	r.add("le", dtype, rank, binaryOp[T, bool, S](le))
	r.add("eq", dtype, rank, binaryOp[T, bool, S](func(x, y T) bool { return x == y }))
	r.add("ne", dtype, rank, binaryOp[T, bool, S](func(x, y T) bool { return x != y }))
}

func arithmetic[T array.Number, S array.Shape](r *registry, rem func(T, T) T) {
	dtype, rank := array.DTypeOf[T](), array.Rank[S]()
	r.add("add", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x + y }))
	r.add("sub", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x - y }))
	r.add("mul", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x * y }))
	r.add("div", dtype, rank, binaryOp[T, T, S](func(x, y T) T { return x / y }))
	r.add("rem", dtype, rank, binaryOp[T, T, S](rem))
}

func extrema[T array.Number, S array.Shape](r *registry) {
	dtype, rank := array.DTypeOf[T](), array.Rank[S]()
	r.add("max", dtype, rank, binaryOp[T, T, S](maxOf[T]))
	r.add("min", dtype, rank, binaryOp[T, T, S](minOf[T]))
}

func numericCasts[T array.Number, S array.Shape](r *registry) {
	cast[T, int8, S](r)
	cast[T, int16, S](r)
	cast[T, int32, S](r)
	cast[T, int64, S](r)
	cast[T, uint8, S](r)
	cast[T, uint16, S](r)
	cast[T, uint32, S](r)
	cast[T, uint64, S](r)
	cast[T, float32, S](r)
	cast[T, float64, S](r)
}

func cast[T, U array.Number, S array.Shape](r *registry) {
	from, to := array.DTypeOf[T](), array.DTypeOf[U]()
	if from == to {
		return
	}
	r.add("cast_"+to.String(), from, array.Rank[S](), unaryOp[T, U, S](func(x T) U { return U(x) }))
}

func boolCast[U array.Integer, S array.Shape](r *registry) {
	to := array.DTypeOf[U]()
	r.add("cast_"+to.String(), array.Bool, array.Rank[S](), unaryOp[bool, U, S](func(x bool) U {
		if x {
			return 1
		}
		return 0
	}))
}

func greater[T array.Number](x, y T) bool   { return x > y }
func less[T array.Number](x, y T) bool      { return x < y }
func greaterEq[T array.Number](x, y T) bool { return x >= y }
func lessEq[T array.Number](x, y T) bool    { return x <= y }

// maxOf and minOf return the other operand when one is NaN.
func maxOf[T array.Number](x, y T) T {
	if x != x || x < y {
		return y
	}
	return x
}

func minOf[T array.Number](x, y T) T {
	if x != x || y < x {
		return y
	}
	return x
}
