package erasure

import (
	stderrors "errors"
	"slices"
	"testing"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/errors"
)

func TestRecoverFill(t *testing.T) {
	a := New(array.Fill([1]int{4}, int32(1)))

	if got, ok := RecoverRef[float32, [1]int](a); ok || got != nil {
		t.Errorf("f32 recovery: got %v, %v, want absent", got, ok)
	}
	if !a.Valid() {
		t.Fatal("failed recovery consumed the source")
	}

	arr, ok := Recover[int32, [1]int](a)
	if !ok {
		t.Fatal("i32 rank 1 recovery failed")
	}
	if want := []int32{1, 1, 1, 1}; !slices.Equal(arr.Data(), want) {
		t.Errorf("data: got %v, want %v", arr.Data(), want)
	}
	if a.Valid() {
		t.Error("owning recovery left the source valid")
	}
}

func TestRecoverMismatch(t *testing.T) {
	tests := []struct {
		name    string
		recover func(*AnyArray) bool
	}{
		{"wrong dtype", func(a *AnyArray) bool { _, ok := Recover[int64, [2]int](a); return ok }},
		{"wrong rank", func(a *AnyArray) bool { _, ok := Recover[float64, [1]int](a); return ok }},
		{"wrong both", func(a *AnyArray) bool { _, ok := Recover[bool, [3]int](a); return ok }},
		{"typed stage", func(a *AnyArray) bool { _, ok := TypedOf[float32](a); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(array.Fill([2]int{2, 3}, 1.5))
			if tt.recover(a) {
				t.Fatal("expected mismatch")
			}
			if !a.Valid() || a.Tag() != (Tag{DType: array.Float64, Rank: 2}) {
				t.Errorf("source changed: valid=%v tag=%v", a.Valid(), a.Tag())
			}
			if got, ok := Recover[float64, [2]int](a); !ok || got.Len() != 6 {
				t.Errorf("matching recovery after mismatch: got %v, %v", got, ok)
			}
		})
	}
}

func TestTwoStage(t *testing.T) {
	src := array.FromSlice([2]int{2, 2}, []uint8{1, 2, 3, 4})
	typed := Erase(src)
	if src.Len() != 0 {
		t.Error("Erase did not move the buffer")
	}
	if typed.Tag().String() != "u8[2]" {
		t.Errorf("tag: got %s, want u8[2]", typed.Tag())
	}
	if _, ok := ArrayRef[[3]int](typed); ok {
		t.Error("rank 3 borrow should fail")
	}

	a := FromTyped(typed)
	if typed.Valid() {
		t.Error("FromTyped did not consume the typed array")
	}
	if a.DType() != array.Uint8 || a.Rank() != 2 || !slices.Equal(a.Shape(), []int{2, 2}) {
		t.Errorf("any: dtype %v rank %d shape %v", a.DType(), a.Rank(), a.Shape())
	}

	back, ok := TypedOf[uint8](a)
	if !ok {
		t.Fatal("TypedOf failed")
	}
	arr, ok := ArrayOf[[2]int](back)
	if !ok {
		t.Fatal("ArrayOf failed")
	}
	if arr.At([2]int{1, 0}) != 3 {
		t.Errorf("At(1,0): got %d, want 3", arr.At([2]int{1, 0}))
	}
	if back.Valid() || a.Valid() {
		t.Error("owning recoveries left sources valid")
	}
}

func TestBorrowMutates(t *testing.T) {
	a := New(array.New[int16]([1]int{3}))
	arr, ok := RecoverRef[int16, [1]int](a)
	if !ok {
		t.Fatal("borrow failed")
	}
	arr.Set([1]int{1}, 7)

	again, _ := RecoverRef[int16, [1]int](a)
	if again.At([1]int{1}) != 7 {
		t.Errorf("mutation through borrow not visible")
	}
}

func TestClone(t *testing.T) {
	a := New(array.FromSlice([1]int{3}, []int32{1, 2, 3}))
	b := a.Clone()
	ref, _ := RecoverRef[int32, [1]int](b)
	ref.Set([1]int{0}, 9)

	orig, _ := RecoverRef[int32, [1]int](a)
	if orig.At([1]int{0}) != 1 {
		t.Error("clone shares the buffer")
	}
	if a.String() != "[1, 2, 3]" || b.String() != "[9, 2, 3]" {
		t.Errorf("strings: %s, %s", a, b)
	}
}

func TestFromSlice(t *testing.T) {
	a, err := FromSlice([]int{2, 1, 3}, []float32{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if !Is[float32, [3]int](a) {
		t.Errorf("tag: got %v", a.Tag())
	}

	_, err = FromSlice([]int{2, 2}, []float32{1, 2, 3})
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindShapeMismatch}) {
		t.Errorf("size mismatch: got %v", err)
	}
	_, err = FromSlice([]int{1, 1, 1, 1, 1, 1}, []float32{1})
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindUnsupported}) {
		t.Errorf("rank 6: got %v", err)
	}
	_, err = FromSlice([]int{1 << 16, 1 << 16, 1 << 16, 1 << 16}, []uint8{})
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidData}) {
		t.Errorf("element count overflow: got %v", err)
	}
}

func TestUnsafeBytesRoundTrip(t *testing.T) {
	a, err := FromSlice([]int{2, 2}, []int64{-1, 2, -3, 4})
	if err != nil {
		t.Fatal(err)
	}
	raw := a.UnsafeBytes()
	if len(raw) != 32 {
		t.Fatalf("bytes: got %d, want 32", len(raw))
	}

	b, err := UnsafeFromBytes(array.Int64, a.Shape(), raw)
	if err != nil {
		t.Fatalf("UnsafeFromBytes: %v", err)
	}
	got, ok := Recover[int64, [2]int](b)
	if !ok || !slices.Equal(got.Data(), []int64{-1, 2, -3, 4}) {
		t.Errorf("round trip: got %v, %v", got, ok)
	}

	if _, err := UnsafeFromBytes(array.Int32, []int{3}, raw[:10]); err == nil {
		t.Error("expected error for ragged buffer")
	}
	if _, err := UnsafeFromBytes(array.Invalid, []int{1}, raw); err == nil {
		t.Error("expected error for invalid dtype")
	}
}

func TestSet(t *testing.T) {
	s := NewSet()
	if err := s.Add("x", New(array.Fill([1]int{2}, true))); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("y", New(array.Fill([1]int{2}, false))); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("x", nil); err == nil {
		t.Error("expected duplicate name error")
	}

	if got := s.Names(); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("names: got %v", got)
	}
	if s.Index("y") != 1 || s.Index("z") != -1 {
		t.Errorf("index: y=%d z=%d", s.Index("y"), s.Index("z"))
	}
	if a, ok := s.Get("y"); !ok || a.String() != "[false, false]" {
		t.Errorf("get y: got %v, %v", a, ok)
	}
	if len(s.Arrays()) != 2 {
		t.Errorf("arrays: got %d", len(s.Arrays()))
	}
}

func TestZeroSet(t *testing.T) {
	var s Set
	if _, ok := s.Get("x"); ok || s.Len() != 0 {
		t.Errorf("zero set: got len %d", s.Len())
	}
	if err := s.Add("x", New(array.Fill([1]int{1}, int32(7)))); err != nil {
		t.Fatalf("Add on zero set: %v", err)
	}
	if err := s.Add("x", nil); !stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidData}) {
		t.Errorf("duplicate: got %v", err)
	}
	if a, ok := s.Get("x"); !ok || a.String() != "[7]" {
		t.Errorf("get x: got %v, %v", a, ok)
	}
}
