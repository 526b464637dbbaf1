package interp

import (
	"github.com/wippyai/cayley/array"
	"github.com/wippyai/cayley/bytecode"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/errors"
)

// pop removes the top of the stack and recovers it as Array[T, S].
func pop[T array.Elem, S array.Shape](stack *Stack) (*array.Array[T, S], error) {
	a, err := stack.Pop()
	if err != nil {
		return nil, err
	}
	arr, ok := erasure.Recover[T, S](a)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseDispatch, []string{"operand"},
			a.Tag().String(), erasure.TagOf[T, S]().String())
	}
	return arr, nil
}

func push[T array.Elem, S array.Shape](stack *Stack, a *array.Array[T, S]) {
	stack.Push(erasure.New(a))
}

func refOp[T array.Elem, S array.Shape]() Handler {
	return func(code *bytecode.Reader, stack *Stack) error {
		ref, err := code.ReadRef()
		if err != nil {
			return err
		}
		a, err := stack.Get(ref)
		if err != nil {
			return err
		}
		arr, ok := erasure.RecoverRef[T, S](a)
		if !ok {
			return errors.TypeMismatch(errors.PhaseDispatch, []string{"ref"},
				a.Tag().String(), erasure.TagOf[T, S]().String())
		}
		push(stack, arr.Clone())
		return nil
	}
}

// mergeOp pops src then dst and writes src into the range of dst.
func mergeOp[T array.Elem, S array.Shape]() Handler {
	return func(code *bytecode.Reader, stack *Stack) error {
		spans, err := code.ReadRange(array.Rank[S]())
		if err != nil {
			return err
		}
		src, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		dst, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		dst.Assign(src, spans...)
		push(stack, dst)
		return nil
	}
}

func sliceOp[T array.Elem, S array.Shape]() Handler {
	return func(code *bytecode.Reader, stack *Stack) error {
		spans, err := code.ReadRange(array.Rank[S]())
		if err != nil {
			return err
		}
		a, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		push(stack, array.ToArray[T, S](a.View(spans...)))
		return nil
	}
}

func expandOp[T array.Elem, S array.Shape]() Handler {
	return func(code *bytecode.Reader, stack *Stack) error {
		shape, err := bytecode.ReadShape[S](code)
		if err != nil {
			return err
		}
		a, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		push(stack, array.ToArray[T, S](a.All().Expand(shape)))
		return nil
	}
}

func reshapeOp[T array.Elem, S, K array.Shape]() Handler {
	return func(code *bytecode.Reader, stack *Stack) error {
		shape, err := bytecode.ReadShape[K](code)
		if err != nil {
			return err
		}
		a, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		push(stack, array.Reshape(a, shape))
		return nil
	}
}

func flipOp[T array.Elem, S array.Shape]() Handler {
	return func(code *bytecode.Reader, stack *Stack) error {
		mask, err := code.ReadMask(array.Rank[S]())
		if err != nil {
			return err
		}
		a, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		push(stack, array.ToArray[T, S](a.All().Flip(mask...)))
		return nil
	}
}

func stepOp[T array.Elem, S array.Shape]() Handler {
	return func(code *bytecode.Reader, stack *Stack) error {
		by, err := bytecode.ReadShape[S](code)
		if err != nil {
			return err
		}
		a, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		push(stack, array.ToArray[T, S](a.All().Step(by)))
		return nil
	}
}

func fillOp[T array.Elem, S array.Shape]() Handler {
	return func(code *bytecode.Reader, stack *Stack) error {
		shape, err := bytecode.ReadShape[S](code)
		if err != nil {
			return err
		}
		v, err := bytecode.ReadValue[T](code)
		if err != nil {
			return err
		}
		push(stack, array.Fill(shape, v))
		return nil
	}
}

func unaryOp[T, U array.Elem, S array.Shape](f func(T) U) Handler {
	return func(_ *bytecode.Reader, stack *Stack) error {
		a, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		push(stack, array.ToArray[U, S](array.Map[T, U, S](a, f)))
		return nil
	}
}

// binaryOp pops the right operand first, then the left.
func binaryOp[T, U array.Elem, S array.Shape](f func(T, T) U) Handler {
	return func(_ *bytecode.Reader, stack *Stack) error {
		r, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		l, err := pop[T, S](stack)
		if err != nil {
			return err
		}
		if l.Shape() != r.Shape() {
			return errors.ShapeMismatch(errors.PhaseDispatch, r.Shape(), l.Shape())
		}
		push(stack, array.ToArray[U, S](array.ZipWith[T, T, U, S](l, r, f)))
		return nil
	}
}
