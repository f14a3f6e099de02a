// Package timer provides a period source and a cooperative progress block,
// plus the stop/start dag that chains them.
package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/dag"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

const origin = "timer"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Query publishes a timer period. Writing timer_out from outside a run
// starts a run of everything downstream.
type Query struct {
	block.Base
}

// NewQuery creates a Query with identity id.
func NewQuery(id string) *Query {
	q := &Query{Base: block.NewBase("timer.query", id, block.WithDoc("Publish a timer period."))}
	q.DeclareInput("period", cty.Number,
		param.WithDefault(cty.NumberIntVal(10)),
		param.WithDoc("Number of steps to publish."))
	q.DeclareOutput("timer_out", cty.Number,
		param.WithDefault(cty.NumberIntVal(10)),
		param.WithDoc("The published period."))
	return q
}

func (q *Query) Execute(ctx context.Context, _ *stopper.Stopper) error {
	ctxlog.FromContext(ctx).Debug("Publishing timer period.", "block", q.ID(), "period", param.FormatValue(q.In("period").Value()))
	return q.Out("timer_out").Set(q.In("period").Value())
}

// Progress counts timer_in steps, waiting step between them, and passes
// timer_in on as timer_out when it gets to the end. It checks the stopper
// between steps and gives up with stopper.ErrStopped.
type Progress struct {
	block.Base
}

// NewProgress creates a Progress with identity id.
func NewProgress(id string) *Progress {
	p := &Progress{Base: block.NewBase("timer.progress", id, block.WithDoc("Count down a period one step at a time."))}
	p.DeclareInput("timer_in", cty.Number,
		param.WithDefault(cty.NumberIntVal(0)),
		param.WithDoc("Number of steps."))
	p.DeclareInput("step", cty.String,
		param.WithDefault(cty.StringVal("1s")),
		param.WithDoc("Duration of one step."))
	p.DeclareOutput("timer_out", cty.Number, param.WithDoc("timer_in, once every step is done."))
	return p
}

func (p *Progress) Execute(ctx context.Context, s *stopper.Stopper) error {
	logger := ctxlog.FromContext(ctx).With("block", p.ID())

	steps, err := param.As[int](p.In("timer_in"))
	if err != nil {
		return err
	}
	raw, err := param.As[string](p.In("step"))
	if err != nil {
		return err
	}
	step, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid step %q: %w", raw, err)
	}

	for t := 1; t <= steps; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.Sleep(step) {
			logger.Info("🛑 Progress stopped.", "done", t-1, "of", steps)
			return stopper.ErrStopped
		}
		logger.Debug("Progress step done.", "done", t, "of", steps)
	}
	return p.Out("timer_out").Set(p.In("timer_in").Value())
}

// NewStopStart builds the stop/start dag: a query feeding two progress
// blocks in a chain.
func NewStopStart(ctx context.Context) (*dag.Graph, error) {
	q := NewQuery("query")
	q.SetName("Specify timer interval")
	first := NewProgress("progress1")
	first.SetName("Progress1")
	second := NewProgress("progress2")
	second.SetName("Progress2")

	g := dag.New("timer.stop_start",
		dag.WithDoc("Count a period down twice; stop and restart it at will."),
		dag.WithTitle("Stop Start"),
		dag.WithLogger(ctxlog.FromContext(ctx)),
	)
	if _, err := g.Connect(q, first, dag.Map("timer_out", "timer_in")); err != nil {
		return nil, err
	}
	if _, err := g.Connect(first, second, dag.Map("timer_out", "timer_in")); err != nil {
		return nil, err
	}
	return g, nil
}

// Register registers the blocks and dags with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBlock(origin, "timer.query", "Publish a timer period.", func(id string) (block.Block, error) {
		return NewQuery(id), nil
	})
	r.RegisterBlock(origin, "timer.progress", "Count down a period one step at a time.", func(id string) (block.Block, error) {
		return NewProgress(id), nil
	})
	r.RegisterDag(origin, "timer.stop_start", "Count a period down twice; stop and restart it at will.", NewStopStart)
}
