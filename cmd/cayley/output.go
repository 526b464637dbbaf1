package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/interp"
)

// Printer renders arrays as nested bracket lists.
type Printer struct {
	Precision int
	MaxElems  int
}

// Format renders a with a dtype and shape header, e.g. "i32 [2 2] [[1, 2], [3, 4]]".
func (p Printer) Format(a *erasure.AnyArray) string {
	if !a.Valid() {
		return a.String()
	}
	return fmt.Sprintf("%s %v %s", a.DType(), a.Shape(), p.body(a))
}

func (p Printer) body(a *erasure.AnyArray) string {
	switch a.DType() {
	case array.Bool:
		return formatTyped(p, a, strconv.FormatBool)
	case array.Int8:
		return formatTyped(p, a, formatInt[int8])
	case array.Int16:
		return formatTyped(p, a, formatInt[int16])
	case array.Int32:
		return formatTyped(p, a, formatInt[int32])
	case array.Int64:
		return formatTyped(p, a, formatInt[int64])
	case array.Uint8:
		return formatTyped(p, a, formatUint[uint8])
	case array.Uint16:
		return formatTyped(p, a, formatUint[uint16])
	case array.Uint32:
		return formatTyped(p, a, formatUint[uint32])
	case array.Uint64:
		return formatTyped(p, a, formatUint[uint64])
	case array.Float32:
		return formatTyped(p, a, func(v float32) string {
			return strconv.FormatFloat(float64(v), 'g', p.Precision, 32)
		})
	case array.Float64:
		return formatTyped(p, a, func(v float64) string {
			return strconv.FormatFloat(v, 'g', p.Precision, 64)
		})
	}
	return a.String()
}

func formatInt[T int8 | int16 | int32 | int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func formatUint[T uint8 | uint16 | uint32 | uint64](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}

func formatTyped[T array.Elem](p Printer, a *erasure.AnyArray, elem func(T) string) string {
	t, ok := erasure.TypedRef[T](a)
	if !ok {
		return a.String()
	}
	var b strings.Builder
	nest(&b, t.Shape(), t.Data(), p.MaxElems, elem)
	return b.String()
}

// nest writes data, laid out row-major over shape, one bracket level per
// axis. Axes longer than maxElems are cut with "...".
func nest[T any](b *strings.Builder, shape []int, data []T, maxElems int, elem func(T) string) {
	b.WriteByte('[')
	n := shape[0]
	shown := n
	if maxElems > 0 && n > maxElems {
		shown = maxElems
	}
	stride := 1
	for _, d := range shape[1:] {
		stride *= d
	}
	for i := 0; i < shown; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if len(shape) == 1 {
			b.WriteString(elem(data[i]))
			continue
		}
		nest(b, shape[1:], data[i*stride:(i+1)*stride], maxElems, elem)
	}
	if shown < n {
		b.WriteString(", ...")
	}
	b.WriteByte(']')
}

// FormatStack renders every stack entry bottom first, each prefixed with
// the reference that addresses it.
func (p Printer) FormatStack(s *interp.Stack) string {
	var b strings.Builder
	for i, a := range s.Items() {
		fmt.Fprintf(&b, "#%d %s\n", i, p.Format(a))
	}
	return b.String()
}
