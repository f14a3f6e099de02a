// Package param holds the named, typed value slots that blocks expose as
// inputs and outputs.
//
// Each Param carries an explicit cty type. Values written with Set are
// converted to that type, checked by the registered guards, and then every
// write notifies the registered watchers synchronously, in registration
// order. A graph installs a guard and a watcher on each connected output so
// that writing an output is what drives propagation.
package param

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ErrUnknown is returned when a parameter name is not declared in a Set.
var ErrUnknown = errors.New("unknown parameter")

// Watcher is notified after every write to a Param.
type Watcher func(p *Param) error

// Guard is consulted before a write is stored. An error rejects the write
// and leaves the current value in place.
type Guard func(p *Param, v cty.Value) error

// Param is a single named slot owned by a block.
type Param struct {
	name string
	typ  cty.Type
	def  cty.Value
	doc  string

	mu       sync.RWMutex
	value    cty.Value
	guards   []Guard
	watchers []Watcher
}

// Option configures a Param at declaration time.
type Option func(*Param)

// WithDefault sets the default value. It must be convertible to the
// parameter type; New panics otherwise.
func WithDefault(v cty.Value) Option {
	return func(p *Param) { p.def = v }
}

// WithDoc attaches a short description used by listings.
func WithDoc(doc string) Option {
	return func(p *Param) { p.doc = doc }
}

// New declares a parameter. Without WithDefault the default is a null of typ.
func New(name string, typ cty.Type, opts ...Option) *Param {
	p := &Param{name: name, typ: typ, def: cty.NullVal(typ)}
	for _, opt := range opts {
		opt(p)
	}
	def, err := p.coerce(p.def)
	if err != nil {
		panic(fmt.Sprintf("param: invalid default for %q: %v", name, err))
	}
	p.def = def
	p.value = def
	return p
}

func (p *Param) Name() string       { return p.name }
func (p *Param) Type() cty.Type     { return p.typ }
func (p *Param) Doc() string        { return p.doc }
func (p *Param) Default() cty.Value { return p.def }

// Value returns the current value.
func (p *Param) Value() cty.Value {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set converts v to the parameter type, runs the guards, stores it and
// notifies watchers. A guard error rejects the write. Otherwise Set returns
// the first watcher error; later watchers are not called.
func (p *Param) Set(v cty.Value) error {
	cv, err := p.coerce(v)
	if err != nil {
		return err
	}

	p.mu.RLock()
	guards := make([]Guard, len(p.guards))
	copy(guards, p.guards)
	p.mu.RUnlock()
	for _, g := range guards {
		if err := g(p, cv); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.value = cv
	watchers := make([]Watcher, len(p.watchers))
	copy(watchers, p.watchers)
	p.mu.Unlock()

	for _, w := range watchers {
		if err := w(p); err != nil {
			return err
		}
	}
	return nil
}

// SetFrom converts a Go value with gocty and sets it.
func (p *Param) SetFrom(v any) error {
	ty := p.typ
	if ty == cty.DynamicPseudoType {
		implied, err := gocty.ImpliedType(v)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", p.name, err)
		}
		ty = implied
	}
	cv, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return fmt.Errorf("parameter %q: %w", p.name, err)
	}
	return p.Set(cv)
}

// Reset restores the default value without notifying watchers.
func (p *Param) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = p.def
}

// Guard registers g to be consulted before every write.
func (p *Param) Guard(g Guard) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.guards = append(p.guards, g)
}

// Watch registers w to be called after every write.
func (p *Param) Watch(w Watcher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watchers = append(p.watchers, w)
}

// String renders the parameter for listings, e.g. `timer_in (number) = 10`.
func (p *Param) String() string {
	s := fmt.Sprintf("%s (%s)", p.name, p.typ.FriendlyName())
	if !p.def.IsNull() {
		s += " = " + FormatValue(p.def)
	}
	return s
}

func (p *Param) coerce(v cty.Value) (cty.Value, error) {
	if v == cty.NilVal {
		return cty.NilVal, fmt.Errorf("parameter %q: value is not set", p.name)
	}
	if p.typ == cty.DynamicPseudoType || v.Type().Equals(p.typ) {
		return v, nil
	}
	cv, err := convert.Convert(v, p.typ)
	if err != nil {
		return cty.NilVal, fmt.Errorf("parameter %q: cannot use %s as %s: %w",
			p.name, v.Type().FriendlyName(), p.typ.FriendlyName(), err)
	}
	return cv, nil
}

// As decodes the current value of p into a Go value of type T.
func As[T any](p *Param) (T, error) {
	var out T
	v := p.Value()
	if v.IsNull() {
		return out, fmt.Errorf("parameter %q has no value", p.name)
	}
	if !v.IsWhollyKnown() {
		return out, fmt.Errorf("parameter %q is not known yet", p.name)
	}
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return out, fmt.Errorf("parameter %q: %w", p.name, err)
	}
	return out, nil
}

// Compatible reports whether a value of type src may be fed into a
// parameter of type dst: the types are identical, either side is dynamic,
// or cty knows a safe conversion.
func Compatible(src, dst cty.Type) bool {
	if src.Equals(dst) {
		return true
	}
	if src == cty.DynamicPseudoType || dst == cty.DynamicPseudoType {
		return true
	}
	return convert.GetConversion(src, dst) != nil
}

// FormatValue renders a value as compact JSON for logs and listings.
func FormatValue(v cty.Value) string {
	if v == cty.NilVal {
		return "<nil>"
	}
	if v.IsNull() {
		return "null"
	}
	if !v.IsWhollyKnown() {
		return "(unknown)"
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}
