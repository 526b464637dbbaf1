package interp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/bytecode"
	"github.com/wippyai/cayley/errors"
)

// Instruction is one decoded operation with its inline operands. Operand
// values are bytecode.Ref, []int, []array.Span, []bool or a scalar,
// following the operation signature.
type Instruction struct {
	Offset   int
	Opcode   bytecode.Opcode
	Op       Op
	Operands []any
}

// Disassemble decodes code into instructions without executing it.
func Disassemble(rt *Runtime, code []byte) ([]Instruction, error) {
	r := bytecode.NewReader(code)
	var out []Instruction
	for !r.Done() {
		ins := Instruction{Offset: r.Position()}
		opcode, err := r.ReadOpcode()
		if err != nil {
			return out, err
		}
		op, ok := rt.Op(opcode)
		if !ok {
			return out, errors.UnknownOpcode(uint32(opcode), rt.Len())
		}
		ins.Opcode, ins.Op = opcode, op

		for _, operand := range op.Operands {
			v, err := readOperand(r, operand)
			if err != nil {
				return out, annotate(err, op.Name)
			}
			ins.Operands = append(ins.Operands, v)
		}
		out = append(out, ins)
	}
	return out, nil
}

func readOperand(r *bytecode.Reader, o Operand) (any, error) {
	switch o.Kind {
	case OperandRef:
		return r.ReadRef()
	case OperandShape:
		return r.ReadDims(o.Rank)
	case OperandRange:
		return r.ReadRange(o.Rank)
	case OperandMask:
		return r.ReadMask(o.Rank)
	case OperandValue:
		return r.ReadScalar(o.DType)
	default:
		return nil, errors.Unsupported(errors.PhaseDecode, o.Kind.String())
	}
}

// String renders the instruction in assembler syntax.
func (ins Instruction) String() string {
	var b strings.Builder
	b.WriteString(ins.Op.Name)
	for _, v := range ins.Operands {
		b.WriteByte(' ')
		b.WriteString(FormatOperand(v))
	}
	return b.String()
}

// FormatOperand renders one decoded operand in assembler syntax.
func FormatOperand(v any) string {
	switch x := v.(type) {
	case bytecode.Ref:
		return "#" + strconv.Itoa(int(x))
	case []int:
		parts := make([]string, len(x))
		for i, d := range x {
			parts[i] = strconv.Itoa(d)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []array.Span:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = fmt.Sprintf("%d:%d", s.Start.Value, s.End.Value)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []bool:
		parts := make([]string, len(x))
		for i, m := range x {
			parts[i] = "f"
			if m {
				parts[i] = "t"
			}
		}
		return "[" + strings.Join(parts, ",") + "]"
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
