package expr

import (
	"fmt"
	"slices"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/bytecode"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/errors"
	"github.com/wippyai/cayley/interp"
)

// Program is a compiled expression. Inputs occupy the bottom stack slots in
// the order of Inputs().Names() and are read through ref instructions, so
// evaluating a program never consumes its inputs.
type Program struct {
	code   []byte
	inputs *erasure.Set
	dtype  array.DType
	dims   []int
}

// Code returns the bytecode.
func (p *Program) Code() []byte { return p.code }

// Inputs returns the bound inputs by name.
func (p *Program) Inputs() *erasure.Set { return p.inputs }

// DType returns the element type of the result.
func (p *Program) DType() array.DType { return p.dtype }

// Shape returns the extents of the result.
func (p *Program) Shape() []int { return slices.Clone(p.dims) }

// Eval runs the program over its bound inputs.
func (p *Program) Eval(rt *interp.Runtime) (*erasure.AnyArray, error) {
	return p.run(rt, p.inputs.Arrays())
}

// EvalWith runs the program with inputs replaced by the arrays of the same
// name in set. Replacements must have the dtype and shape of the input they
// stand for; names missing from set keep their bound array.
func (p *Program) EvalWith(rt *interp.Runtime, set *erasure.Set) (*erasure.AnyArray, error) {
	arrays := p.inputs.Arrays()
	for i, name := range p.inputs.Names() {
		a, ok := set.Get(name)
		if !ok {
			continue
		}
		if a.Tag() != arrays[i].Tag() || !slices.Equal(a.Shape(), arrays[i].Shape()) {
			return nil, errors.New(errors.PhaseCompile, errors.KindTypeMismatch).
				Path("input", name).
				Have(fmt.Sprintf("%s%v", a.DType(), a.Shape())).
				Want(fmt.Sprintf("%s%v", arrays[i].DType(), arrays[i].Shape())).
				Build()
		}
		arrays[i] = a
	}
	return p.run(rt, arrays)
}

func (p *Program) run(rt *interp.Runtime, inputs []*erasure.AnyArray) (*erasure.AnyArray, error) {
	stack := interp.NewStack(inputs...)
	if err := rt.Run(stack, p.code); err != nil {
		return nil, err
	}
	if stack.Len() != len(inputs)+1 {
		return nil, errors.New(errors.PhaseDispatch, errors.KindStackUnderflow).
			Detail("program left %d values above %d inputs", stack.Len()-len(inputs), len(inputs)).
			Build()
	}
	return stack.Pop()
}

// Eval compiles e and evaluates it once.
func Eval(rt *interp.Runtime, e *Expr) (*erasure.AnyArray, error) {
	p, err := Compile(rt, e)
	if err != nil {
		return nil, err
	}
	return p.Eval(rt)
}

type compiler struct {
	rt      *interp.Runtime
	w       *bytecode.Writer
	inputs  *erasure.Set
	slots   map[*Expr]int
	missing []string
}

// Compile emits e in post-order. Each distinct input node gets one stack
// slot; unnamed inputs are called in0, in1 and so on.
func Compile(rt *interp.Runtime, e *Expr) (*Program, error) {
	if e.err != nil {
		return nil, e.err
	}
	c := &compiler{
		rt:     rt,
		w:      bytecode.NewWriter(),
		inputs: erasure.NewSet(),
		slots:  make(map[*Expr]int),
	}
	if err := c.bind(e); err != nil {
		return nil, err
	}
	if err := c.emit(e); err != nil {
		return nil, err
	}
	if len(c.missing) > 0 {
		return nil, errors.NewUnlinkedError(c.missing)
	}
	return &Program{code: c.w.Bytes(), inputs: c.inputs, dtype: e.dtype, dims: slices.Clone(e.dims)}, nil
}

// bind assigns stack slots to inputs in depth-first order.
func (c *compiler) bind(e *Expr) error {
	if e.kind == KindInput {
		if _, seen := c.slots[e]; seen {
			return nil
		}
		name := e.name
		if name == "" {
			name = fmt.Sprintf("in%d", c.inputs.Len())
		}
		if err := c.inputs.Add(name, e.input); err != nil {
			return err
		}
		c.slots[e] = c.inputs.Len() - 1
		return nil
	}
	for _, d := range e.deps {
		if err := c.bind(d); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) op(name string) {
	code, ok := c.rt.Link(name)
	if !ok {
		c.missing = append(c.missing, name)
		return
	}
	c.w.Opcode(code)
}

func opName(family string, dtype array.DType, rank int) string {
	return fmt.Sprintf("%s_%s_%d", family, dtype, rank)
}

func (c *compiler) emit(e *Expr) error {
	for _, d := range e.deps {
		if err := c.emit(d); err != nil {
			return err
		}
	}

	switch e.kind {
	case KindInput:
		c.op(opName("ref", e.dtype, e.Rank()))
		c.w.Ref(bytecode.Ref(c.slots[e]))
	case KindFill:
		c.op(opName("fill", e.dtype, e.Rank()))
		if err := c.w.Dims(e.dims); err != nil {
			return err
		}
		return c.w.Scalar(e.dtype, e.value)
	case KindSlice:
		c.op(opName("slice", e.dtype, e.Rank()))
		return c.w.Range(e.start, e.end)
	case KindMerge:
		c.op(opName("merge", e.dtype, e.Rank()))
		return c.w.Range(e.start, e.end)
	case KindExpand:
		c.op(opName("expand", e.dtype, e.Rank()))
		return c.w.Dims(e.dims)
	case KindReshape:
		src := e.deps[0]
		c.op(opName(fmt.Sprintf("reshape_%d", e.Rank()), src.dtype, src.Rank()))
		return c.w.Dims(e.dims)
	case KindCast:
		src := e.deps[0]
		c.op(opName("cast_"+e.dtype.String(), src.dtype, src.Rank()))
	case KindFlip:
		c.op(opName("flip", e.dtype, e.Rank()))
		c.w.Mask(e.mask)
	case KindStep:
		c.op(opName("step", e.dtype, e.Rank()))
		return c.w.Dims(e.by)
	case KindUnary, KindBinary:
		src := e.deps[0]
		c.op(opName(e.op, src.dtype, src.Rank()))
	default:
		return errors.Unsupported(errors.PhaseCompile, "expression kind "+string(e.kind))
	}
	return nil
}
