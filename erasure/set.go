package erasure

import (
	"github.com/wippyai/cayley/errors"
)

// Set is an ordered collection of named arrays. Programs compiled from
// expressions bind their inputs by position in a Set. The zero value is an
// empty set ready to use.
type Set struct {
	names []string
	items map[string]*AnyArray
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{items: make(map[string]*AnyArray)}
}

// Add appends a under name. Names must be unique.
func (s *Set) Add(name string, a *AnyArray) error {
	if _, exists := s.items[name]; exists {
		return errors.InvalidData(errors.PhaseErase, []string{name}, "duplicate array name")
	}
	if s.items == nil {
		s.items = make(map[string]*AnyArray)
	}
	s.names = append(s.names, name)
	s.items[name] = a
	return nil
}

// Get returns the array stored under name.
func (s *Set) Get(name string) (*AnyArray, bool) {
	a, ok := s.items[name]
	return a, ok
}

// Index returns the position of name in insertion order, or -1.
func (s *Set) Index(name string) int {
	for i, n := range s.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Names returns the names in insertion order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of arrays.
func (s *Set) Len() int { return len(s.names) }

// Arrays returns the arrays in insertion order.
func (s *Set) Arrays() []*AnyArray {
	out := make([]*AnyArray, len(s.names))
	for i, n := range s.names {
		out[i] = s.items[n]
	}
	return out
}
