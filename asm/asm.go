package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/bytecode"
	"github.com/wippyai/cayley/errors"
	"github.com/wippyai/cayley/interp"
)

// Line is one parsed source instruction.
type Line struct {
	Number   int
	Name     string
	Operands []string
}

// Parse splits src into instructions without linking them.
func Parse(src string) ([]Line, error) {
	var out []Line
	for i, raw := range strings.Split(src, "\n") {
		text := raw
		if j := strings.IndexByte(text, ';'); j >= 0 {
			text = text[:j]
		}
		text = strings.TrimSpace(text)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields, err := tokenize(text)
		if err != nil {
			return nil, lineError(i+1, err.Error())
		}
		out = append(out, Line{Number: i + 1, Name: fields[0], Operands: fields[1:]})
	}
	return out, nil
}

// tokenize splits on whitespace outside brackets.
func tokenize(text string) ([]string, error) {
	var fields []string
	var cur strings.Builder
	depth := 0
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for _, c := range text {
		switch {
		case c == '[':
			depth++
			cur.WriteRune(c)
		case c == ']':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced ']'")
			}
			cur.WriteRune(c)
		case (c == ' ' || c == '\t') && depth == 0:
			flush()
		case c == ' ' || c == '\t':
		default:
			cur.WriteRune(c)
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '['")
	}
	flush()
	return fields, nil
}

// Assemble parses src and encodes it against the operation table of rt.
// All unknown operation names are reported together as an
// *errors.UnlinkedError.
func Assemble(rt *interp.Runtime, src string) ([]byte, error) {
	lines, err := Parse(src)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(lines))
	for i, l := range lines {
		names[i] = l.Name
	}
	opcodes, err := rt.LinkAll(names...)
	if err != nil {
		return nil, err
	}

	w := bytecode.NewWriter()
	for i, l := range lines {
		op, _ := rt.Op(opcodes[i])
		if len(l.Operands) != len(op.Operands) {
			return nil, lineError(l.Number, fmt.Sprintf("%s takes %d operand(s) (%s), got %d",
				op.Name, len(op.Operands), op.Signature(), len(l.Operands)))
		}
		w.Opcode(opcodes[i])
		for j, operand := range op.Operands {
			if err := encode(w, operand, l.Operands[j]); err != nil {
				return nil, lineError(l.Number, fmt.Sprintf("%s operand %d: %v", op.Name, j, err))
			}
		}
	}
	return w.Bytes(), nil
}

// Format renders instructions as assembler source, one per line.
func Format(ins []interp.Instruction) string {
	var b strings.Builder
	for _, in := range ins {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func lineError(n int, detail string) *errors.Error {
	return errors.New(errors.PhaseCompile, errors.KindInvalidData).
		Path(fmt.Sprintf("line%d", n)).
		Detail("%s", detail).
		Build()
}

func encode(w *bytecode.Writer, o interp.Operand, tok string) error {
	switch o.Kind {
	case interp.OperandRef:
		if !strings.HasPrefix(tok, "#") {
			return fmt.Errorf("ref %q must look like #N", tok)
		}
		n, err := strconv.ParseUint(tok[1:], 10, 16)
		if err != nil {
			return err
		}
		w.Ref(bytecode.Ref(n))
		return nil

	case interp.OperandShape:
		items, err := list(tok, o.Rank)
		if err != nil {
			return err
		}
		dims := make([]int, len(items))
		for i, s := range items {
			d, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return err
			}
			dims[i] = int(d)
		}
		return w.Dims(dims)

	case interp.OperandRange:
		items, err := list(tok, o.Rank)
		if err != nil {
			return err
		}
		start, end := make([]int, len(items)), make([]int, len(items))
		for i, s := range items {
			lo, hi, ok := strings.Cut(s, ":")
			if !ok {
				return fmt.Errorf("range %q must look like start:end", s)
			}
			a, err := strconv.ParseInt(lo, 10, 32)
			if err != nil {
				return err
			}
			b, err := strconv.ParseInt(hi, 10, 32)
			if err != nil {
				return err
			}
			start[i], end[i] = int(a), int(b)
		}
		return w.Range(start, end)

	case interp.OperandMask:
		items, err := list(tok, o.Rank)
		if err != nil {
			return err
		}
		mask := make([]bool, len(items))
		for i, s := range items {
			if mask[i], err = parseBool(s); err != nil {
				return err
			}
		}
		w.Mask(mask)
		return nil

	case interp.OperandValue:
		v, err := ParseScalar(o.DType, tok)
		if err != nil {
			return err
		}
		return w.Scalar(o.DType, v)

	default:
		return errors.Unsupported(errors.PhaseCompile, o.Kind.String())
	}
}

// list splits "[a,b,c]" and checks the item count.
func list(tok string, rank int) ([]string, error) {
	if !strings.HasPrefix(tok, "[") || !strings.HasSuffix(tok, "]") {
		return nil, fmt.Errorf("%q must be a bracketed list", tok)
	}
	inner := tok[1 : len(tok)-1]
	var items []string
	if inner != "" {
		items = strings.Split(inner, ",")
	}
	if len(items) != rank {
		return nil, fmt.Errorf("%q has %d item(s), want %d", tok, len(items), rank)
	}
	return items, nil
}

func parseBool(s string) (bool, error) {
	switch s {
	case "t", "true", "1":
		return true, nil
	case "f", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool %q", s)
}

// ParseScalar parses a literal into the Go type of dtype.
func ParseScalar(dtype array.DType, s string) (any, error) {
	switch dtype {
	case array.Bool:
		return parseBool(s)
	case array.Int8:
		v, err := strconv.ParseInt(s, 0, 8)
		return int8(v), err
	case array.Int16:
		v, err := strconv.ParseInt(s, 0, 16)
		return int16(v), err
	case array.Int32:
		v, err := strconv.ParseInt(s, 0, 32)
		return int32(v), err
	case array.Int64:
		return strconv.ParseInt(s, 0, 64)
	case array.Uint8:
		v, err := strconv.ParseUint(s, 0, 8)
		return uint8(v), err
	case array.Uint16:
		v, err := strconv.ParseUint(s, 0, 16)
		return uint16(v), err
	case array.Uint32:
		v, err := strconv.ParseUint(s, 0, 32)
		return uint32(v), err
	case array.Uint64:
		return strconv.ParseUint(s, 0, 64)
	case array.Float32:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case array.Float64:
		return strconv.ParseFloat(s, 64)
	default:
		return nil, errors.Unsupported(errors.PhaseCompile, "dtype "+dtype.String())
	}
}
