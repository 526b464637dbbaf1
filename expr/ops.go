package expr

import (
	"slices"

	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/errors"
)

// operand classes accepted by element-wise operations
type class uint8

const (
	anyType class = iota
	numeric
	integer
	boolean
)

func (c class) accepts(d array.DType) bool {
	switch c {
	case numeric:
		return d.IsNumber()
	case integer:
		return d.IsInteger()
	case boolean:
		return d.IsBool()
	default:
		return d != array.Invalid
	}
}

func (c class) String() string {
	switch c {
	case numeric:
		return "number"
	case integer:
		return "integer"
	case boolean:
		return "bool"
	default:
		return "any"
	}
}

func unary(op string, c class, x *Expr) *Expr {
	if x.err != nil {
		return x
	}
	if !c.accepts(x.dtype) {
		return invalid(errors.TypeMismatch(errors.PhaseCompile, []string{op}, x.dtype.String(), c.String()))
	}
	out := derive(KindUnary, x.dtype, slices.Clone(x.dims), x)
	out.op = op
	return out
}

// binary checks both operands and broadcasts r to the shape of l.
func binary(op string, c class, toBool bool, l, r *Expr) *Expr {
	if l.err != nil {
		return l
	}
	if r.err != nil {
		return r
	}
	if l.dtype != r.dtype {
		return invalid(errors.TypeMismatch(errors.PhaseCompile, []string{op}, r.dtype.String(), l.dtype.String()))
	}
	if !c.accepts(l.dtype) {
		return invalid(errors.TypeMismatch(errors.PhaseCompile, []string{op}, l.dtype.String(), c.String()))
	}
	r = r.conform(l.dims)
	if r.err != nil {
		return r
	}
	dtype := l.dtype
	if toBool {
		dtype = array.Bool
	}
	out := derive(KindBinary, dtype, slices.Clone(l.dims), l, r)
	out.op = op
	return out
}

func (e *Expr) Add(r *Expr) *Expr { return binary("add", numeric, false, e, r) }
func (e *Expr) Sub(r *Expr) *Expr { return binary("sub", numeric, false, e, r) }
func (e *Expr) Mul(r *Expr) *Expr { return binary("mul", numeric, false, e, r) }
func (e *Expr) Div(r *Expr) *Expr { return binary("div", numeric, false, e, r) }
func (e *Expr) Rem(r *Expr) *Expr { return binary("rem", numeric, false, e, r) }

func (e *Expr) Max(r *Expr) *Expr { return binary("max", numeric, false, e, r) }
func (e *Expr) Min(r *Expr) *Expr { return binary("min", numeric, false, e, r) }

// Neg is bitwise complement.
func (e *Expr) Neg() *Expr { return unary("neg", integer, e) }
func (e *Expr) BitAnd(r *Expr) *Expr { return binary("bit_and", integer, false, e, r) }
func (e *Expr) BitOr(r *Expr) *Expr { return binary("bit_or", integer, false, e, r) }
func (e *Expr) BitXor(r *Expr) *Expr { return binary("bit_xor", integer, false, e, r) }
func (e *Expr) Shl(r *Expr) *Expr { return binary("shl", integer, false, e, r) }
func (e *Expr) Shr(r *Expr) *Expr { return binary("shr", integer, false, e, r) }

func (e *Expr) Gt(r *Expr) *Expr { return binary("gt", anyType, true, e, r) }
func (e *Expr) Lt(r *Expr) *Expr { return binary("lt", anyType, true, e, r) }
func (e *Expr) Ge(r *Expr) *Expr { return binary("ge", anyType, true, e, r) }
func (e *Expr) Le(r *Expr) *Expr { return binary("le", anyType, true, e, r) }
func (e *Expr) Eq(r *Expr) *Expr { return binary("eq", anyType, true, e, r) }
func (e *Expr) Ne(r *Expr) *Expr { return binary("ne", anyType, true, e, r) }

func (e *Expr) Not() *Expr { return unary("not", boolean, e) }
func (e *Expr) And(r *Expr) *Expr { return binary("and", boolean, false, e, r) }
func (e *Expr) Or(r *Expr) *Expr { return binary("or", boolean, false, e, r) }
func (e *Expr) Xor(r *Expr) *Expr { return binary("xor", boolean, false, e, r) }
