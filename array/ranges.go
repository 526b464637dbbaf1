package array

import (
	"fmt"

	"github.com/wippyai/cayley/errors"
)

// BoundKind says how a Bound value participates in an interval.
type BoundKind uint8

const (
	Unbounded BoundKind = iota
	Included
	Excluded
)

// Bound is one side of a caller-supplied axis interval. Negative values
// count back from the end of the axis.
type Bound struct {
	Kind  BoundKind
	Value int
}

// Span is a caller-supplied interval over one axis.
type Span struct {
	Start Bound
	End   Bound
}

// Full spans a whole axis.
func Full() Span { return Span{} }

// Between spans [start, end).
func Between(start, end int) Span {
	return Span{Start: Bound{Included, start}, End: Bound{Excluded, end}}
}

// Inclusive spans [start, end].
func Inclusive(start, end int) Span {
	return Span{Start: Bound{Included, start}, End: Bound{Included, end}}
}

// From spans [start, len).
func From(start int) Span {
	return Span{Start: Bound{Included, start}}
}

// To spans [0, end).
func To(end int) Span {
	return Span{End: Bound{Excluded, end}}
}

// Through spans [0, end].
func Through(end int) Span {
	return Span{End: Bound{Included, end}}
}

// Index spans the single position i.
func Index(i int) Span {
	return Inclusive(i, i)
}

func (s Span) String() string {
	var start, end string
	switch s.Start.Kind {
	case Included:
		start = fmt.Sprint(s.Start.Value)
	case Excluded:
		start = fmt.Sprintf("(%d", s.Start.Value)
	}
	switch s.End.Kind {
	case Included:
		end = fmt.Sprintf("=%d", s.End.Value)
	case Excluded:
		end = fmt.Sprint(s.End.Value)
	}
	return start + ".." + end
}

func normalize(x, length int) int {
	if x < 0 {
		return length + x
	}
	return x
}

// resolve turns a span into an absolute half-open interval over an axis
// of the given length.
func (s Span) resolve(length int) (start, end int) {
	switch s.Start.Kind {
	case Included:
		start = normalize(s.Start.Value, length)
	case Excluded:
		start = normalize(s.Start.Value, length) + 1
	default:
		start = 0
	}
	switch s.End.Kind {
	case Included:
		end = normalize(s.End.Value, length) + 1
	case Excluded:
		end = normalize(s.End.Value, length)
	default:
		end = length
	}
	return start, end
}

// Range is a resolved per-axis half-open interval with
// 0 <= Start[i] <= End[i] <= shape[i].
type Range[S Shape] struct {
	Start S
	End   S
}

// Shape returns the interval lengths.
func (r Range[S]) Shape() S {
	var shape S
	for i := 0; i < len(shape); i++ {
		shape[i] = r.End[i] - r.Start[i]
	}
	return shape
}

// FullRange covers every position of shape.
func FullRange[S Shape](shape S) Range[S] {
	return Range[S]{End: shape}
}

// ResolveRange resolves spans against shape. It fails with KindShapeMismatch
// when the number of spans differs from the rank and with KindOutOfRange when
// a resolved interval leaves the axis.
func ResolveRange[S Shape](shape S, spans ...Span) (Range[S], error) {
	var r Range[S]
	start, end, err := ResolveSpans(Dims(shape), spans)
	if err != nil {
		return r, err
	}
	for i := 0; i < len(shape); i++ {
		r.Start[i] = start[i]
		r.End[i] = end[i]
	}
	return r, nil
}

// ResolveSpans is ResolveRange for shapes whose rank is only known at run time.
func ResolveSpans(dims []int, spans []Span) (start, end []int, err error) {
	if len(spans) != len(dims) {
		return nil, nil, errors.New(errors.PhaseResolve, errors.KindShapeMismatch).
			Have(fmt.Sprintf("%d spans", len(spans))).
			Want(fmt.Sprintf("%d spans", len(dims))).
			Build()
	}
	start = make([]int, len(dims))
	end = make([]int, len(dims))
	for i, s := range spans {
		a, b := s.resolve(dims[i])
		if a < 0 || a > b || b > dims[i] {
			return nil, nil, errors.OutOfRange(errors.PhaseResolve, i, a, b, dims[i])
		}
		start[i], end[i] = a, b
	}
	return start, end, nil
}

func mustResolve[S Shape](phase errors.Phase, shape S, spans []Span) Range[S] {
	r, err := ResolveRange(shape, spans...)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Phase = phase
		}
		panic(err)
	}
	return r
}
