// Package block defines the unit of work wired into a graph.
//
// Concrete blocks embed Base, declare their parameters in their constructor
// and override Execute. Three flavours share the same interface: pure
// computations, interactive-input blocks whose outputs are written from
// outside a run, and long-running blocks that poll the Stopper.
package block

import (
	"context"
	"fmt"

	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

// Block is a node of a graph.
type Block interface {
	// ID is the identity of the block, unique within its graph.
	ID() string
	// Name is a human readable label.
	Name() string
	Doc() string
	Inputs() *param.Set
	Outputs() *param.Set
	// Execute reads inputs and writes outputs. Blocks doing more than a
	// trivial amount of work check s between steps and return an error
	// wrapping stopper.ErrStopped once it is set.
	Execute(ctx context.Context, s *stopper.Stopper) error
}

// Keyed is implemented by blocks that know the registry key they were
// built from. Base implements it.
type Keyed interface {
	Key() string
	SetKey(key string)
}

// UserInput is implemented by interactive-input blocks.
type UserInput interface {
	UserInput() bool
}

// Base carries the identity and parameter sets of a block.
type Base struct {
	key       string
	id        string
	name      string
	doc       string
	userInput bool
	inputs    *param.Set
	outputs   *param.Set
}

// Option configures a Base.
type Option func(*Base)

func WithName(name string) Option { return func(b *Base) { b.name = name } }

func WithDoc(doc string) Option { return func(b *Base) { b.doc = doc } }

// WithUserInput marks the block as interactive.
func WithUserInput() Option { return func(b *Base) { b.userInput = true } }

// NewBase builds a Base. key is the registry key and may be empty for ad-hoc
// blocks; the display name defaults to id.
func NewBase(key, id string, opts ...Option) Base {
	b := Base{
		key:     key,
		id:      id,
		name:    id,
		inputs:  param.NewSet(),
		outputs: param.NewSet(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *Base) ID() string          { return b.id }
func (b *Base) Name() string        { return b.name }
func (b *Base) Doc() string         { return b.doc }
func (b *Base) Inputs() *param.Set  { return b.inputs }
func (b *Base) Outputs() *param.Set { return b.outputs }
func (b *Base) Key() string         { return b.key }
func (b *Base) SetKey(key string)   { b.key = key }
func (b *Base) UserInput() bool     { return b.userInput }

// SetName changes the display name.
func (b *Base) SetName(name string) { b.name = name }

// Execute must be overridden by the embedding type.
func (b *Base) Execute(context.Context, *stopper.Stopper) error {
	return fmt.Errorf("block %q does not implement Execute", b.id)
}

// DeclareInput adds an input parameter.
func (b *Base) DeclareInput(name string, typ cty.Type, opts ...param.Option) *param.Param {
	return b.inputs.Declare(name, typ, opts...)
}

// DeclareOutput adds an output parameter.
func (b *Base) DeclareOutput(name string, typ cty.Type, opts ...param.Option) *param.Param {
	return b.outputs.Declare(name, typ, opts...)
}

// In returns a declared input and panics on an unknown name.
func (b *Base) In(name string) *param.Param {
	p, ok := b.inputs.Get(name)
	if !ok {
		panic(fmt.Sprintf("block %q has no input %q", b.id, name))
	}
	return p
}

// Out returns a declared output and panics on an unknown name.
func (b *Base) Out(name string) *param.Param {
	p, ok := b.outputs.Get(name)
	if !ok {
		panic(fmt.Sprintf("block %q has no output %q", b.id, name))
	}
	return p
}

// IsUserInput reports whether b is an interactive-input block.
func IsUserInput(b Block) bool {
	u, ok := b.(UserInput)
	return ok && u.UserInput()
}

// KeyOf returns the registry key of b, or "" when it has none.
func KeyOf(b Block) string {
	if k, ok := b.(Keyed); ok {
		return k.Key()
	}
	return ""
}
