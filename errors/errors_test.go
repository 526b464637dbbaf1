package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDispatch,
				Kind:   KindTypeMismatch,
				Path:   []string{"add_i32_2", "lhs"},
				Have:   "f32[2]",
				Want:   "i32[2]",
				Detail: "cannot recover operand",
			},
			contains: []string{"[dispatch]", "type_mismatch", "add_i32_2.lhs", "have f32[2]", "want i32[2]", "cannot recover"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindTruncated,
			},
			contains: []string{"[decode]", "truncated"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseKernel,
				Kind:   KindInstantiation,
				Detail: "compile",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[kernel]", "instantiation", "compile", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseDecode,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseAssign,
		Kind:  KindShapeMismatch,
		Path:  []string{"axis0"},
	}

	if !err.Is(&Error{Phase: PhaseAssign, Kind: KindShapeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseIterate, Kind: KindShapeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseAssign, Kind: KindOutOfRange}) {
		t.Error("Is should not match different kind")
	}
	if !err.Is(&Error{Kind: KindShapeMismatch}) {
		t.Error("Is should match on kind when target phase is empty")
	}

	target := &Error{Phase: PhaseAssign, Kind: KindShapeMismatch}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDispatch, KindTypeMismatch).
		Path("mul_f32_1", "rhs").
		Have("i32[1]").
		Want("f32[1]").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "f32", "i32").
		Build()

	if err.Phase != PhaseDispatch {
		t.Errorf("Phase: got %v, want %v", err.Phase, PhaseDispatch)
	}
	if err.Kind != KindTypeMismatch {
		t.Errorf("Kind: got %v, want %v", err.Kind, KindTypeMismatch)
	}
	if len(err.Path) != 2 || err.Path[0] != "mul_f32_1" || err.Path[1] != "rhs" {
		t.Errorf("Path: got %v, want [mul_f32_1 rhs]", err.Path)
	}
	if err.Have != "i32[1]" {
		t.Errorf("Have: got %v, want i32[1]", err.Have)
	}
	if err.Want != "f32[1]" {
		t.Errorf("Want: got %v, want f32[1]", err.Want)
	}
	if err.Value != 42 {
		t.Errorf("Value: got %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause: got %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected f32, got i32" {
		t.Errorf("Detail: got %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("ShapeMismatch", func(t *testing.T) {
		err := ShapeMismatch(PhaseIterate, []int{5}, []int{4})
		if err.Kind != KindShapeMismatch {
			t.Errorf("Kind: got %v, want %v", err.Kind, KindShapeMismatch)
		}
		if err.Have != "[5]" || err.Want != "[4]" {
			t.Errorf("Have=%v Want=%v", err.Have, err.Want)
		}
	})

	t.Run("OutOfRange", func(t *testing.T) {
		err := OutOfRange(PhaseResolve, 1, 3, 9, 4)
		if err.Kind != KindOutOfRange {
			t.Errorf("Kind: got %v, want %v", err.Kind, KindOutOfRange)
		}
		if err.Value != [2]int{3, 9} {
			t.Errorf("Value: got %v, want [3 9]", err.Value)
		}
		if !strings.Contains(err.Error(), "axis1") {
			t.Errorf("message %q should name the axis", err.Error())
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		err := Truncated(PhaseDecode, "shape", 7, 4)
		if err.Kind != KindTruncated {
			t.Errorf("Kind: got %v, want %v", err.Kind, KindTruncated)
		}
		if err.Value != 7 {
			t.Errorf("Value: got %v, want 7", err.Value)
		}
	})

	t.Run("UnknownOpcode", func(t *testing.T) {
		err := UnknownOpcode(99999, 10)
		if err.Kind != KindUnknownOpcode || err.Phase != PhaseDispatch {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("StackUnderflow", func(t *testing.T) {
		err := StackUnderflow("add_i32_1", 1, 0)
		if err.Kind != KindStackUnderflow {
			t.Errorf("Kind: got %v, want %v", err.Kind, KindStackUnderflow)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseKernel, "i8 kernels")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind: got %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseCompile, "input", "positions")
		if !strings.Contains(err.Detail, `"positions"`) {
			t.Errorf("Detail: got %q", err.Detail)
		}
	})
}

func TestUnlinkedError(t *testing.T) {
	t.Run("grouped by family", func(t *testing.T) {
		err := NewUnlinkedError([]string{"mul_c64_1", "reshape_2_i32_9", "mul_c64_2"})
		msg := err.Error()
		if !strings.Contains(msg, "unknown 3 op(s)") {
			t.Errorf("message should contain count, got %q", msg)
		}
		if !strings.Contains(msg, "  mul:\n") {
			t.Errorf("message should group mul family, got %q", msg)
		}
		if !strings.Contains(msg, "  reshape_2:\n") {
			t.Errorf("message should keep multi-word family, got %q", msg)
		}
		if strings.Count(msg, "mul:") != 1 {
			t.Errorf("mul family listed more than once: %q", msg)
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := NewUnlinkedError(nil)
		if !strings.Contains(err.Error(), "no names specified") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := NewUnlinkedError([]string{"foo_i32_1"})
		if !errors.Is(err, &UnlinkedError{}) {
			t.Error("errors.Is should match UnlinkedError")
		}
	})
}
