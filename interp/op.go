package interp

import (
	"fmt"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/bytecode"
)

// Handler executes one operation. It reads its own operands from code and
// works on stack.
type Handler func(code *bytecode.Reader, stack *Stack) error

// OperandKind identifies the encoding of an inline operand.
type OperandKind uint8

const (
	OperandRef   OperandKind = iota // u16 stack slot
	OperandShape                    // rank u32 extents
	OperandRange                    // rank (i32, i32) pairs
	OperandMask                     // rank bytes
	OperandValue                    // one scalar of DType
)

var operandKindNames = [...]string{
	OperandRef:   "ref",
	OperandShape: "shape",
	OperandRange: "range",
	OperandMask:  "mask",
	OperandValue: "value",
}

func (k OperandKind) String() string {
	if int(k) < len(operandKindNames) {
		return operandKindNames[k]
	}
	return fmt.Sprintf("operand(%d)", k)
}

// Operand describes one inline operand of an operation.
type Operand struct {
	Kind  OperandKind
	Rank  int
	DType array.DType
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandRef:
		return "ref"
	case OperandValue:
		return o.DType.String()
	default:
		return fmt.Sprintf("%s[%d]", o.Kind, o.Rank)
	}
}

// Op is one entry of the operation table.
type Op struct {
	Name     string
	Family   string
	DType    array.DType
	Rank     int
	Operands []Operand
	Handler  Handler
}

// Signature renders the operand list, e.g. "shape[2] f32".
func (o Op) Signature() string {
	s := ""
	for i, operand := range o.Operands {
		if i > 0 {
			s += " "
		}
		s += operand.String()
	}
	return s
}
