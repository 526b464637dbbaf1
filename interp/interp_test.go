package interp

import (
	stderrors "errors"
	"math"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/bytecode"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/errors"
)

// prog assembles a program by name for tests.
type prog struct {
	t  *testing.T
	rt *Runtime
	w  *bytecode.Writer
}

func newProg(t *testing.T) *prog {
	return &prog{t: t, rt: Default(), w: bytecode.NewWriter()}
}

func (p *prog) op(name string) *prog {
	p.t.Helper()
	op, ok := p.rt.Link(name)
	if !ok {
		p.t.Fatalf("unknown op %q", name)
	}
	p.w.Opcode(op)
	return p
}

func (p *prog) shape(dims ...int) *prog {
	if err := p.w.Dims(dims); err != nil {
		p.t.Fatal(err)
	}
	return p
}

// rng takes alternating start, end bounds.
func (p *prog) rng(bounds ...int) *prog {
	var start, end []int
	for i := 0; i < len(bounds); i += 2 {
		start = append(start, bounds[i])
		end = append(end, bounds[i+1])
	}
	if err := p.w.Range(start, end); err != nil {
		p.t.Fatal(err)
	}
	return p
}

func (p *prog) mask(m ...bool) *prog {
	p.w.Mask(m)
	return p
}

func (p *prog) ref(i int) *prog {
	p.w.Ref(bytecode.Ref(i))
	return p
}

func (p *prog) val(v any) *prog {
	switch x := v.(type) {
	case bool:
		bytecode.WriteValue(p.w, x)
	case uint8:
		bytecode.WriteValue(p.w, x)
	case int32:
		bytecode.WriteValue(p.w, x)
	case int64:
		bytecode.WriteValue(p.w, x)
	case float32:
		bytecode.WriteValue(p.w, x)
	case float64:
		bytecode.WriteValue(p.w, x)
	default:
		p.t.Fatalf("unsupported literal %T", v)
	}
	return p
}

func (p *prog) code() []byte {
	return p.w.Bytes()
}

func grid() *erasure.AnyArray {
	data := make([]int32, 16)
	for i := range data {
		data[i] = int32(i)
	}
	return erasure.New(array.FromSlice([2]int{4, 4}, data))
}

func emptyStack() *Stack { return NewStack() }

func recoverData[T array.Elem, S array.Shape](t *testing.T, a *erasure.AnyArray) ([]T, S) {
	t.Helper()
	if a == nil {
		t.Fatal("no result")
	}
	arr, ok := erasure.Recover[T, S](a)
	if !ok {
		t.Fatalf("result has tag %v, want %v", a.Tag(), erasure.TagOf[T, S]())
	}
	return arr.Data(), arr.Shape()
}

func TestEvalFillMul(t *testing.T) {
	p := newProg(t).
		op("fill_i32_1").shape(5).val(int32(2)).
		op("fill_i32_1").shape(5).val(int32(3)).
		op("mul_i32_1")

	res, err := p.rt.Eval(p.code())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	data, shape := recoverData[int32, [1]int](t, res)
	if shape != [1]int{5} || !slices.Equal(data, []int32{6, 6, 6, 6, 6}) {
		t.Errorf("got %v %v, want [6 6 6 6 6]", shape, data)
	}
}

func TestEvalEmpty(t *testing.T) {
	res, err := Default().Eval(nil)
	if res != nil || err != nil {
		t.Errorf("got %v, %v, want no result", res, err)
	}
}

func TestOps(t *testing.T) {
	tests := []struct {
		name  string
		stack func() *Stack
		build func(p *prog)
		check func(t *testing.T, a *erasure.AnyArray)
	}{
		{
			name:  "slice",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) { p.op("slice_i32_2").rng(1, 3, 1, 3) },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, shape := recoverData[int32, [2]int](t, a)
				if shape != [2]int{2, 2} || !slices.Equal(data, []int32{5, 6, 9, 10}) {
					t.Errorf("got %v %v", shape, data)
				}
			},
		},
		{
			name:  "slice negative",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) { p.op("slice_i32_2").rng(-1, 4, -3, 4) },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[int32, [2]int](t, a)
				if !slices.Equal(data, []int32{13, 14, 15}) {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "flip rows",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) { p.op("flip_i32_2").mask(true, false) },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[int32, [2]int](t, a)
				want := []int32{12, 13, 14, 15, 8, 9, 10, 11, 4, 5, 6, 7, 0, 1, 2, 3}
				if !slices.Equal(data, want) {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "step",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) { p.op("step_i32_2").shape(2, 2) },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, shape := recoverData[int32, [2]int](t, a)
				if shape != [2]int{2, 2} || !slices.Equal(data, []int32{0, 2, 8, 10}) {
					t.Errorf("got %v %v", shape, data)
				}
			},
		},
		{
			name:  "reshape",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) { p.op("reshape_3_i32_2").shape(2, 2, 4) },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, shape := recoverData[int32, [3]int](t, a)
				if shape != [3]int{2, 2, 4} || data[15] != 15 {
					t.Errorf("got %v %v", shape, data)
				}
			},
		},
		{
			name:  "merge",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) {
				p.op("fill_i32_2").shape(2, 2).val(int32(-1)).
					op("merge_i32_2").rng(1, 3, 1, 3)
			},
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[int32, [2]int](t, a)
				want := []int32{0, 1, 2, 3, 4, -1, -1, 7, 8, -1, -1, 11, 12, 13, 14, 15}
				if !slices.Equal(data, want) {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "ref clones",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) { p.op("ref_i32_2").ref(0).op("add_i32_2") },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[int32, [2]int](t, a)
				if data[0] != 0 || data[5] != 10 || data[15] != 30 {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name: "expand",
			stack: func() *Stack {
				return NewStack(erasure.New(array.FromSlice([2]int{1, 3}, []int32{1, 2, 3})))
			},
			build: func(p *prog) { p.op("expand_i32_2").shape(2, 3) },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, shape := recoverData[int32, [2]int](t, a)
				if shape != [2]int{2, 3} || !slices.Equal(data, []int32{1, 2, 3, 1, 2, 3}) {
					t.Errorf("got %v %v", shape, data)
				}
			},
		},
		{
			name:  "cast",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) { p.op("cast_f32_i32_2") },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[float32, [2]int](t, a)
				if data[7] != 7.0 {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "compare",
			stack: func() *Stack { return NewStack(grid()) },
			build: func(p *prog) { p.op("fill_i32_2").shape(4, 4).val(int32(13)).op("gt_i32_2") },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[bool, [2]int](t, a)
				for i, v := range data {
					if v != (i > 13) {
						t.Errorf("element %d: got %v", i, v)
					}
				}
			},
		},
		{
			name:  "bool logic",
			stack: emptyStack,
			build: func(p *prog) {
				p.op("fill_bool_1").shape(3).val(true).
					op("fill_bool_1").shape(3).val(false).
					op("xor_bool_1").
					op("not_bool_1")
			},
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[bool, [1]int](t, a)
				if !slices.Equal(data, []bool{false, false, false}) {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "bool ordering",
			stack: emptyStack,
			build: func(p *prog) {
				p.op("fill_bool_1").shape(2).val(true).
					op("fill_bool_1").shape(2).val(false).
					op("ge_bool_1")
			},
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[bool, [1]int](t, a)
				if !slices.Equal(data, []bool{true, true}) {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "bool cast",
			stack: emptyStack,
			build: func(p *prog) { p.op("fill_bool_1").shape(2).val(true).op("cast_u8_bool_1") },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[uint8, [1]int](t, a)
				if !slices.Equal(data, []uint8{1, 1}) {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "bitwise not",
			stack: emptyStack,
			build: func(p *prog) { p.op("fill_u8_1").shape(1).val(uint8(0x0f)).op("neg_u8_1") },
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[uint8, [1]int](t, a)
				if data[0] != 0xf0 {
					t.Errorf("got %#x", data[0])
				}
			},
		},
		{
			name:  "shift",
			stack: emptyStack,
			build: func(p *prog) {
				p.op("fill_i32_1").shape(2).val(int32(1)).
					op("fill_i32_1").shape(2).val(int32(3)).
					op("shl_i32_1")
			},
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[int32, [1]int](t, a)
				if !slices.Equal(data, []int32{8, 8}) {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "float rem",
			stack: emptyStack,
			build: func(p *prog) {
				p.op("fill_f64_1").shape(1).val(7.5).
					op("fill_f64_1").shape(1).val(2.0).
					op("rem_f64_1")
			},
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[float64, [1]int](t, a)
				if data[0] != 1.5 {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "max ignores nan",
			stack: emptyStack,
			build: func(p *prog) {
				p.op("fill_f32_1").shape(1).val(float32(math.NaN())).
					op("fill_f32_1").shape(1).val(float32(1)).
					op("max_f32_1")
			},
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[float32, [1]int](t, a)
				if data[0] != 1 {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "min",
			stack: emptyStack,
			build: func(p *prog) {
				p.op("fill_i64_1").shape(1).val(int64(-3)).
					op("fill_i64_1").shape(1).val(int64(4)).
					op("min_i64_1")
			},
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[int64, [1]int](t, a)
				if data[0] != -3 {
					t.Errorf("got %v", data)
				}
			},
		},
		{
			name:  "sub order",
			stack: emptyStack,
			build: func(p *prog) {
				p.op("fill_i32_1").shape(1).val(int32(10)).
					op("fill_i32_1").shape(1).val(int32(4)).
					op("sub_i32_1")
			},
			check: func(t *testing.T, a *erasure.AnyArray) {
				data, _ := recoverData[int32, [1]int](t, a)
				if data[0] != 6 {
					t.Errorf("got %v, want 6", data[0])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProg(t)
			tt.build(p)
			stack := tt.stack()
			if err := p.rt.Run(stack, p.code()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			top, err := stack.Pop()
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, top)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	rt := Default()
	unknown := bytecode.NewWriter()
	unknown.Opcode(bytecode.Opcode(rt.Len()))

	tests := []struct {
		name string
		code []byte
		kind errors.Kind
		op   string
	}{
		{"unknown opcode", unknown.Bytes(), errors.KindUnknownOpcode, ""},
		{"truncated opcode", []byte{0x01, 0x00}, errors.KindTruncated, ""},
		{"truncated value", newProg(t).op("fill_i32_1").shape(5).code(), errors.KindTruncated, "fill_i32_1"},
		{"underflow", newProg(t).op("mul_i32_1").code(), errors.KindStackUnderflow, "mul_i32_1"},
		{
			"type mismatch",
			newProg(t).op("fill_f32_1").shape(2).val(float32(1)).
				op("fill_i32_1").shape(2).val(int32(1)).
				op("mul_i32_1").code(),
			errors.KindTypeMismatch, "mul_i32_1",
		},
		{
			"shape mismatch",
			newProg(t).op("fill_i32_1").shape(5).val(int32(1)).
				op("fill_i32_1").shape(4).val(int32(1)).
				op("add_i32_1").code(),
			errors.KindShapeMismatch, "add_i32_1",
		},
		{
			"range outside axis",
			newProg(t).op("fill_i32_1").shape(4).val(int32(1)).
				op("slice_i32_1").rng(0, 5).code(),
			errors.KindOutOfRange, "slice_i32_1",
		},
		{
			"integer division by zero",
			newProg(t).op("fill_i32_1").shape(2).val(int32(1)).
				op("fill_i32_1").shape(2).val(int32(0)).
				op("div_i32_1").code(),
			errors.KindInvalidData, "div_i32_1",
		},
		{
			"fill element count overflow",
			newProg(t).op("fill_u8_4").shape(1<<16, 1<<16, 1<<16, 1<<16).val(uint8(1)).code(),
			errors.KindInvalidData, "fill_u8_4",
		},
		{
			"expand element count overflow",
			newProg(t).op("fill_u8_4").shape(1, 1, 1, 1).val(uint8(1)).
				op("expand_u8_4").shape(1<<16, 1<<16, 1<<16, 1<<16).code(),
			errors.KindInvalidData, "expand_u8_4",
		},
		{
			"bad ref",
			newProg(t).op("ref_f64_1").ref(3).code(),
			errors.KindStackUnderflow, "ref_f64_1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rt.Eval(tt.code)
			if res != nil {
				t.Errorf("unexpected result %v", res)
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("kind: got %s, want %s (%v)", e.Kind, tt.kind, err)
			}
			if tt.op != "" && (len(e.Path) == 0 || e.Path[0] != tt.op) {
				t.Errorf("path: got %v, want %s first", e.Path, tt.op)
			}
		})
	}
}

func TestTable(t *testing.T) {
	ops := Table()
	if len(ops) != 2090 {
		t.Errorf("table size: got %d, want 2090", len(ops))
	}
	if !slices.IsSortedFunc(ops, func(a, b Op) int { return strings.Compare(a.Name, b.Name) }) {
		t.Error("table is not sorted by name")
	}

	rt := New()
	for i, op := range ops {
		code, ok := rt.Link(op.Name)
		if !ok || int(code) != i {
			t.Fatalf("Link(%s): got %d, %v, want %d", op.Name, code, ok, i)
		}
		if i > 0 && ops[i-1].Name == op.Name {
			t.Fatalf("duplicate name %s", op.Name)
		}
	}

	for _, name := range []string{"mul_i32_1", "reshape_2_f32_3", "cast_i8_bool_5", "not_bool_2", "shr_u64_4"} {
		if _, ok := rt.Link(name); !ok {
			t.Errorf("missing %s", name)
		}
	}
	for _, name := range []string{"cast_f32_bool_1", "cast_i32_i32_1", "add_bool_1", "neg_f32_1", "mul_i32_6"} {
		if _, ok := rt.Link(name); ok {
			t.Errorf("unexpected %s", name)
		}
	}

	op, _ := rt.Op(rt.MustLink("fill_f32_2"))
	if op.Family != "fill" || op.DType != array.Float32 || op.Rank != 2 || op.Signature() != "shape[2] f32" {
		t.Errorf("fill_f32_2: got %+v signature %q", op, op.Signature())
	}
	if _, ok := rt.Op(bytecode.Opcode(rt.Len())); ok {
		t.Error("Op past the table end")
	}
}

func TestLinkAll(t *testing.T) {
	rt := Default()
	codes, err := rt.LinkAll("add_i32_1", "mul_i32_1")
	if err != nil || len(codes) != 2 {
		t.Fatalf("LinkAll: %v, %v", codes, err)
	}

	_, err = rt.LinkAll("add_i32_1", "mul_q32_1", "reshape_2_x_1")
	var unlinked *errors.UnlinkedError
	if !stderrors.As(err, &unlinked) {
		t.Fatalf("expected UnlinkedError, got %v", err)
	}
	if !slices.Equal(unlinked.Names, []string{"mul_q32_1", "reshape_2_x_1"}) {
		t.Errorf("names: got %v", unlinked.Names)
	}
}

func TestStack(t *testing.T) {
	s := NewStack()
	if _, err := s.Pop(); err == nil {
		t.Error("expected underflow")
	}
	a := erasure.New(array.Fill([1]int{1}, int8(1)))
	b := erasure.New(array.Fill([1]int{1}, int8(2)))
	s.Push(a)
	s.Push(b)

	if got, _ := s.Get(0); got != a {
		t.Error("Get(0) is not the bottom slot")
	}
	if got, _ := s.Peek(); got != b {
		t.Error("Peek is not the top slot")
	}
	if _, err := s.Get(2); err == nil {
		t.Error("expected error past the top")
	}
	if got, _ := s.Pop(); got != b || s.Len() != 1 {
		t.Errorf("Pop: got %v, depth %d", got, s.Len())
	}
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Reset: depth %d", s.Len())
	}
}

func TestDisassemble(t *testing.T) {
	p := newProg(t).
		op("fill_i32_1").shape(5).val(int32(2)).
		op("slice_i32_1").rng(1, -1).
		op("ref_f32_2").ref(0).
		op("flip_bool_2").mask(true, false).
		op("fill_f64_1").shape(1).val(0.25)

	ins, err := Disassemble(p.rt, p.code())
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	want := []string{
		"fill_i32_1 [5] 2",
		"slice_i32_1 [1:-1]",
		"ref_f32_2 #0",
		"flip_bool_2 [t,f]",
		"fill_f64_1 [1] 0.25",
	}
	if len(ins) != len(want) {
		t.Fatalf("instructions: got %d, want %d", len(ins), len(want))
	}
	for i := range want {
		if got := ins[i].String(); got != want[i] {
			t.Errorf("instruction %d: got %q, want %q", i, got, want[i])
		}
	}
	if ins[1].Offset != 12 {
		t.Errorf("offset: got %d, want 12", ins[1].Offset)
	}

	_, err = Disassemble(p.rt, p.code()[:len(p.code())-3])
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindTruncated}) {
		t.Errorf("truncated: got %v", err)
	}
}

func TestSharedRuntime(t *testing.T) {
	rt := Default()
	code := newProg(t).
		op("fill_i64_1").shape(3).val(int64(4)).
		op("ref_i64_1").ref(0).
		op("mul_i64_1").code()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := rt.Eval(code)
			if err != nil {
				errs <- err
				return
			}
			if arr, ok := erasure.Recover[int64, [1]int](res); !ok || arr.At([1]int{2}) != 16 {
				errs <- stderrors.New("wrong result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
