package interp

import (
	"github.com/wippyai/cayley/bytecode"
	"github.com/wippyai/cayley/erasure"
	"github.com/wippyai/cayley/errors"
)

// Stack is the operand stack of one evaluation. It is not safe for
// concurrent use; give every execution context its own Stack.
type Stack struct {
	items []*erasure.AnyArray
}

// NewStack creates a stack holding items, the last one on top.
func NewStack(items ...*erasure.AnyArray) *Stack {
	return &Stack{items: append([]*erasure.AnyArray(nil), items...)}
}

// Push places a on top of the stack.
func (s *Stack) Push(a *erasure.AnyArray) {
	s.items = append(s.items, a)
}

// Pop removes and returns the top of the stack.
func (s *Stack) Pop() (*erasure.AnyArray, error) {
	n := len(s.items)
	if n == 0 {
		return nil, errors.StackUnderflow("pop", 0, 0)
	}
	a := s.items[n-1]
	s.items[n-1] = nil
	s.items = s.items[:n-1]
	return a, nil
}

// Peek returns the top of the stack without removing it.
func (s *Stack) Peek() (*erasure.AnyArray, bool) {
	if len(s.items) == 0 {
		return nil, false
	}
	return s.items[len(s.items)-1], true
}

// Get returns the slot at ref, counted from the bottom of the stack.
func (s *Stack) Get(ref bytecode.Ref) (*erasure.AnyArray, error) {
	if int(ref) >= len(s.items) {
		return nil, errors.StackUnderflow("ref", int(ref), len(s.items))
	}
	return s.items[ref], nil
}

// Len returns the stack depth.
func (s *Stack) Len() int {
	return len(s.items)
}

// Items returns the slots bottom first. The slice aliases the stack.
func (s *Stack) Items() []*erasure.AnyArray {
	return s.items
}

// Reset drops every slot.
func (s *Stack) Reset() {
	clear(s.items)
	s.items = s.items[:0]
}
