package param

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Set is an ordered collection of parameters with unique names. It is
// populated while a block is constructed and only read afterwards.
type Set struct {
	order  []string
	params map[string]*Param
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{params: make(map[string]*Param)}
}

// Add appends p, rejecting a name that is already declared.
func (s *Set) Add(p *Param) error {
	if _, exists := s.params[p.Name()]; exists {
		return fmt.Errorf("parameter %q declared twice", p.Name())
	}
	s.order = append(s.order, p.Name())
	s.params[p.Name()] = p
	return nil
}

// Declare creates and adds a parameter. It panics on a duplicate name since
// declarations are fixed in code.
func (s *Set) Declare(name string, typ cty.Type, opts ...Option) *Param {
	p := New(name, typ, opts...)
	if err := s.Add(p); err != nil {
		panic(err)
	}
	return p
}

func (s *Set) Get(name string) (*Param, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Lookup is Get with an error that wraps ErrUnknown.
func (s *Set) Lookup(name string) (*Param, error) {
	p, ok := s.params[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, name)
	}
	return p, nil
}

// Names returns parameter names in declaration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// All returns the parameters in declaration order.
func (s *Set) All() []*Param {
	out := make([]*Param, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.params[name])
	}
	return out
}

func (s *Set) Len() int { return len(s.order) }
