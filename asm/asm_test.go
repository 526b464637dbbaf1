package asm

import (
	"bytes"
	stderrors "errors"
	"slices"
	"strings"
	"testing"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/bytecode"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/errors"
	"github.com/wippyai/cayley/interp"
)

func TestAssembleEval(t *testing.T) {
	rt := interp.Default()
	src := `
# two filled vectors, multiplied
fill_i32_1 [5] 2
fill_i32_1 [5] 3
mul_i32_1            ; pops 3s then 2s
`
	code, err := Assemble(rt, src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	res, err := rt.Eval(code)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	arr, ok := erasure.Recover[int32, [1]int](res)
	if !ok || !slices.Equal(arr.Data(), []int32{6, 6, 6, 6, 6}) {
		t.Errorf("got %v, %v", arr, ok)
	}
}

func TestAssembleMatchesWriter(t *testing.T) {
	rt := interp.Default()
	code, err := Assemble(rt, "fill_f32_2 [2, 3] -1.5\nslice_f32_2 [0:1,-2:3]\nflip_f32_2 [f,t]")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	w := bytecode.NewWriter()
	w.Opcode(rt.MustLink("fill_f32_2"))
	bytecode.WriteShape(w, [2]int{2, 3})
	bytecode.WriteValue(w, float32(-1.5))
	w.Opcode(rt.MustLink("slice_f32_2"))
	w.Range([]int{0, -2}, []int{1, 3})
	w.Opcode(rt.MustLink("flip_f32_2"))
	w.Mask([]bool{false, true})

	if !bytes.Equal(code, w.Bytes()) {
		t.Errorf("got % x\nwant % x", code, w.Bytes())
	}
}

func TestRoundTrip(t *testing.T) {
	rt := interp.Default()
	src := strings.Join([]string{
		"fill_u8_3 [2,2,2] 255",
		"ref_u8_3 #0",
		"bit_xor_u8_3",
		"reshape_1_u8_3 [8]",
		"fill_bool_1 [8] true",
		"step_bool_1 [2]",
		"fill_f64_1 [1] 0.1",
		"expand_f64_1 [4]",
	}, "\n") + "\n"

	code, err := Assemble(rt, src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	ins, err := interp.Disassemble(rt, code)
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if got := Format(ins); got != src {
		t.Errorf("round trip:\ngot  %q\nwant %q", got, src)
	}
}

func TestUnlinked(t *testing.T) {
	_, err := Assemble(interp.Default(), "fill_i32_1 [1] 0\nmultiply_i32_1\nfill_i33_1 [1] 0")
	var unlinked *errors.UnlinkedError
	if !stderrors.As(err, &unlinked) {
		t.Fatalf("expected UnlinkedError, got %v", err)
	}
	if !slices.Equal(unlinked.Names, []string{"multiply_i32_1", "fill_i33_1"}) {
		t.Errorf("names: got %v", unlinked.Names)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"missing operand", "fill_i32_1 [5]", "line1"},
		{"extra operand", "\nmul_i32_1 [5]", "line2"},
		{"rank", "fill_i32_2 [5] 1", "line1"},
		{"value overflow", "fill_i8_1 [1] 300", "line1"},
		{"bad ref", "ref_i8_1 0", "line1"},
		{"bad range", "slice_i8_1 [1..3]", "line1"},
		{"bad mask", "flip_i8_1 [x]", "line1"},
		{"unbalanced", "fill_i8_1 [1 1", "line1"},
		{"negative extent", "fill_i8_1 [-1] 1", "line1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(interp.Default(), tt.src)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseCompile || len(e.Path) == 0 || e.Path[0] != tt.line {
				t.Errorf("got %v, want compile error at %s", err, tt.line)
			}
		})
	}
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		dtype array.DType
		text  string
		want  any
	}{
		{array.Bool, "t", true},
		{array.Int16, "-0x10", int16(-16)},
		{array.Uint64, "18446744073709551615", uint64(18446744073709551615)},
		{array.Float32, "2.5", float32(2.5)},
		{array.Float64, "1e3", 1000.0},
	}
	for _, tt := range tests {
		got, err := ParseScalar(tt.dtype, tt.text)
		if err != nil || got != tt.want {
			t.Errorf("ParseScalar(%s, %q): got %v (%T), %v, want %v", tt.dtype, tt.text, got, got, err, tt.want)
		}
	}
}
