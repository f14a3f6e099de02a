// Package testutil provides shared blocks and helpers for tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

// Spy is a block with caller-declared parameters that records the inputs of
// every Execute call and then runs Fn, if set.
type Spy struct {
	block.Base
	Fn func(ctx context.Context, s *stopper.Stopper, b *Spy) error

	mu    sync.Mutex
	calls []map[string]cty.Value
}

// NewSpy creates a Spy with no parameters.
func NewSpy(id string, opts ...block.Option) *Spy {
	return &Spy{Base: block.NewBase("test.spy", id, opts...)}
}

// WithInput declares an input and returns the spy for chaining.
func (s *Spy) WithInput(name string, typ cty.Type, opts ...param.Option) *Spy {
	s.DeclareInput(name, typ, opts...)
	return s
}

// WithOutput declares an output and returns the spy for chaining.
func (s *Spy) WithOutput(name string, typ cty.Type, opts ...param.Option) *Spy {
	s.DeclareOutput(name, typ, opts...)
	return s
}

func (s *Spy) Execute(ctx context.Context, st *stopper.Stopper) error {
	snapshot := make(map[string]cty.Value)
	for _, p := range s.Inputs().All() {
		snapshot[p.Name()] = p.Value()
	}
	s.mu.Lock()
	s.calls = append(s.calls, snapshot)
	s.mu.Unlock()

	if s.Fn != nil {
		return s.Fn(ctx, st, s)
	}
	return nil
}

// Calls returns how many times Execute ran.
func (s *Spy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Input returns the value input name had during call i.
func (s *Spy) Input(i int, name string) cty.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i][name]
}

// Counter mimics a progress bar: it counts timer_in steps, waiting Step
// between them, and writes timer_out = timer_in * Factor when it finishes.
type Counter struct {
	block.Base
	Step   time.Duration
	Factor int64
	// OnStep runs after each completed step with the number of steps done.
	OnStep func(done int)

	mu    sync.Mutex
	steps int
	runs  int
}

// NewCounter creates a Counter with a Factor of 1.
func NewCounter(id string, step time.Duration) *Counter {
	c := &Counter{Base: block.NewBase("test.counter", id), Step: step, Factor: 1}
	c.DeclareInput("timer_in", cty.Number, param.WithDefault(cty.NumberIntVal(0)))
	c.DeclareOutput("timer_out", cty.Number)
	return c
}

func (c *Counter) Execute(ctx context.Context, s *stopper.Stopper) error {
	n, err := param.As[int64](c.In("timer_in"))
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.runs++
	c.steps = 0
	c.mu.Unlock()

	for i := int64(0); i < n; i++ {
		if s.IsStopped() || !s.Sleep(c.Step) {
			return stopper.ErrStopped
		}
		c.mu.Lock()
		c.steps++
		done := c.steps
		c.mu.Unlock()
		if c.OnStep != nil {
			c.OnStep(done)
		}
	}
	if s.IsStopped() {
		return stopper.ErrStopped
	}
	return c.Out("timer_out").Set(cty.NumberIntVal(n * c.Factor))
}

// Steps returns the steps completed by the latest run.
func (c *Counter) Steps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps
}

// Runs returns how many times Execute started.
func (c *Counter) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

// Source is a value source whose Execute re-emits its current output.
type Source struct {
	block.Base
}

// NewSource creates a Source with a single output named out.
func NewSource(id, out string, typ cty.Type, def cty.Value) *Source {
	s := &Source{Base: block.NewBase("test.source", id)}
	s.DeclareOutput(out, typ, param.WithDefault(def))
	return s
}

func (s *Source) Execute(ctx context.Context, _ *stopper.Stopper) error {
	for _, p := range s.Outputs().All() {
		if err := p.Set(p.Value()); err != nil {
			return err
		}
	}
	return nil
}
