package dag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/inmemorystore"
	"github.com/vk/blockflow/internal/nodestore"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/vk/blockflow/internal/dag")

// RunStatus is the overall outcome of a run.
type RunStatus int

const (
	// RunCompleted means every block that became ready executed.
	RunCompleted RunStatus = iota
	// RunIncomplete means the run was stopped or its context ended.
	RunIncomplete
	// RunFailed means a block returned an error.
	RunFailed
)

func (s RunStatus) String() string {
	switch s {
	case RunCompleted:
		return "completed"
	case RunIncomplete:
		return "incomplete"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunResult summarizes one run.
type RunResult struct {
	ID     string
	Dag    string
	Status RunStatus
	// Executed lists the blocks whose Execute was called, in order.
	Executed []string
	// Blocks holds the final status of every block the run reached.
	Blocks map[string]nodestore.Status
	// Failed names the failing block when Status is RunFailed.
	Failed   string
	Err      error
	Started  time.Time
	Finished time.Time
}

func (r *RunResult) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// StatusOf returns the status of block id, Pending if the run did not
// record one.
func (r *RunResult) StatusOf(id string) nodestore.Status {
	if s, ok := r.Blocks[id]; ok {
		return s
	}
	return nodestore.StatusPending
}

// runState is the per-run bookkeeping shared between the coordinator and
// output watchers. Fields touched by watchers are guarded by Graph.mu.
type runState struct {
	id        string
	store     nodestore.Store
	reachable map[string]bool
	supplied  map[string]map[string]bool

	current *entry
	dirty   []string
}

// stimulus describes where a run starts.
type stimulus struct {
	kind string
	// origin is nil for a full run.
	origin *entry
	// seeds are outputs of origin to propagate before the first block.
	seeds []string
	// includeOrigin makes origin itself a candidate for execution.
	includeOrigin bool
}

// Run executes every block of the graph once, in dependency order.
func (g *Graph) Run(ctx context.Context) (*RunResult, error) {
	return g.start(ctx, stimulus{kind: "run"})
}

// Trigger treats the named outputs of block id (all connected outputs when
// none are named) as freshly written and runs everything downstream. This is
// how an interactive block confirms its values.
func (g *Graph) Trigger(ctx context.Context, id string, outputs ...string) (*RunResult, error) {
	g.mu.Lock()
	e, ok := g.entries[id]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("trigger %q: %w", id, ErrUnknownBlock)
	}
	for _, name := range outputs {
		if _, err := e.block.Outputs().Lookup(name); err != nil {
			return nil, fmt.Errorf("trigger %q: %w", id, err)
		}
	}
	if len(outputs) == 0 {
		outputs = e.block.Outputs().Names()
	}
	return g.start(ctx, stimulus{kind: "trigger", origin: e, seeds: outputs})
}

// SetInput writes an input that is not fed by a connection and runs block id
// and everything downstream of it.
func (g *Graph) SetInput(ctx context.Context, id, input string, v cty.Value) (*RunResult, error) {
	g.mu.Lock()
	e, ok := g.entries[id]
	active := g.active != nil
	connected := ok && e.incoming[input] != (feed{})
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("set %s.%s: %w", id, input, ErrUnknownBlock)
	}
	if active {
		return nil, fmt.Errorf("set %s.%s: %w", id, input, ErrRunInProgress)
	}
	in, err := e.block.Inputs().Lookup(input)
	if err != nil {
		return nil, fmt.Errorf("set %s.%s: %w", id, input, err)
	}
	if connected {
		return nil, fmt.Errorf("set %s.%s: %w", id, input, ErrConnectedInput)
	}
	if err := in.Set(v); err != nil {
		return nil, fmt.Errorf("set %s.%s: %w", id, input, err)
	}
	return g.start(ctx, stimulus{kind: "set_input", origin: e, includeOrigin: true})
}

// outputGuard rejects writes to a connected output from anything but the
// executing block while a run is active, before the value is stored.
func (g *Graph) outputGuard(e *entry, name string) param.Guard {
	return func(*param.Param, cty.Value) error {
		g.mu.Lock()
		defer g.mu.Unlock()
		if rs := g.active; rs != nil && rs.current != e {
			return fmt.Errorf("write to %s.%s: %w", e.id, name, ErrRunInProgress)
		}
		return nil
	}
}

// outputWatcher is installed on every connected output. Writes made by the
// executing block are collected for propagation; writes from outside start
// a run unless the block is interactive, which waits for Trigger.
func (g *Graph) outputWatcher(e *entry, name string) param.Watcher {
	return func(*param.Param) error {
		g.mu.Lock()
		rs := g.active
		if rs != nil && rs.current == e {
			for _, d := range rs.dirty {
				if d == name {
					g.mu.Unlock()
					return nil
				}
			}
			rs.dirty = append(rs.dirty, name)
			g.mu.Unlock()
			return nil
		}
		g.mu.Unlock()

		if rs != nil {
			return fmt.Errorf("write to %s.%s: %w", e.id, name, ErrRunInProgress)
		}
		if block.IsUserInput(e.block) {
			return nil
		}
		res, err := g.start(g.baseContext(), stimulus{kind: "write", origin: e, seeds: []string{name}})
		if err != nil {
			return err
		}
		if res.Status == RunFailed {
			return res.Err
		}
		return nil
	}
}

func (g *Graph) start(ctx context.Context, st stimulus) (*RunResult, error) {
	g.mu.Lock()
	if g.active != nil {
		g.mu.Unlock()
		return nil, fmt.Errorf("dag %q: %w", g.key, ErrRunInProgress)
	}
	order, err := g.orderLocked()
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	rs := &runState{
		id:        uuid.NewString(),
		store:     inmemorystore.New(),
		reachable: make(map[string]bool),
		supplied:  make(map[string]map[string]bool),
	}
	if st.origin == nil {
		for _, id := range order {
			rs.reachable[id] = true
		}
	} else {
		for _, id := range g.topo.Descendants(st.origin.id) {
			rs.reachable[id] = true
		}
		if st.includeOrigin {
			rs.reachable[st.origin.id] = true
		}
	}
	entries := make(map[string]*entry, len(g.entries))
	for id, e := range g.entries {
		entries[id] = e
	}
	logger := g.logger
	g.active = rs
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.active = nil
		g.mu.Unlock()
	}()

	ctx = ctxlog.WithLogger(ctx, logger.With("dag", g.key, "run_id", rs.id))
	ctx, span := tracer.Start(ctx, "dag.run", trace.WithAttributes(
		attribute.String("dag.key", g.key),
		attribute.String("run.id", rs.id),
		attribute.String("run.stimulus", st.kind),
	))
	defer span.End()

	result := &RunResult{ID: rs.id, Dag: g.key, Started: time.Now()}
	g.emit(Event{Type: EventRunStarted, RunID: rs.id, Time: result.Started})
	ctxlog.FromContext(ctx).Debug("Run started.", "stimulus", st.kind, "reachable", len(rs.reachable))

	var runErr error
	if st.origin != nil && len(st.seeds) > 0 {
		if err := g.propagate(rs, st.origin, st.seeds); err != nil {
			runErr = &ExecutionError{Dag: g.key, Block: st.origin.id, Err: err}
			result.Failed = st.origin.id
			g.skipRemaining(ctx, rs, order, entries)
		}
	}

	stopped := false
	for i, id := range order {
		if runErr != nil || stopped {
			break
		}
		if !rs.reachable[id] {
			continue
		}
		e := entries[id]

		if err := ctx.Err(); err != nil {
			runErr = err
			g.skipRemaining(ctx, rs, order[i:], entries)
			break
		}
		if g.stopper.IsStopped() {
			ctxlog.FromContext(ctx).Info("🛑 Run stopped before block.", "block", id)
			stopped = true
			g.skipRemaining(ctx, rs, order[i:], entries)
			break
		}
		if !g.ready(rs, e) {
			ctxlog.FromContext(ctx).Debug("Block not ready, skipping.", "block", id)
			continue
		}

		result.Executed = append(result.Executed, id)
		status, err := g.executeBlock(ctx, rs, e)
		switch status {
		case nodestore.StatusFailed:
			runErr = &ExecutionError{Dag: g.key, Block: id, Err: err}
			result.Failed = id
			g.skipRemaining(ctx, rs, order[i+1:], entries)
		case nodestore.StatusStopped:
			stopped = true
			g.skipRemaining(ctx, rs, order[i+1:], entries)
		}
	}

	result.Finished = time.Now()
	result.Blocks, _ = rs.store.Snapshot(ctx)
	result.Err = runErr
	var execErr *ExecutionError
	switch {
	case errors.As(runErr, &execErr):
		result.Status = RunFailed
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	case runErr != nil, stopped:
		result.Status = RunIncomplete
	default:
		result.Status = RunCompleted
	}
	span.SetAttributes(attribute.String("run.status", result.Status.String()))

	g.mu.Lock()
	g.last = result
	g.mu.Unlock()

	g.emit(Event{Type: EventRunFinished, RunID: rs.id, RunStatus: result.Status, Err: runErr, Duration: result.Duration()})
	logRun(ctx, result)
	return result, runErr
}

// ready reports whether every connected input of e was supplied.
func (g *Graph) ready(rs *runState, e *entry) bool {
	for input, f := range e.incoming {
		if rs.supplied[e.id][input] {
			continue
		}
		if !rs.reachable[f.source.id] && e.everSupplied[input] {
			continue
		}
		return false
	}
	return true
}

func (g *Graph) executeBlock(ctx context.Context, rs *runState, e *entry) (nodestore.Status, error) {
	g.mu.Lock()
	rs.current = e
	rs.dirty = nil
	g.mu.Unlock()

	ctx = ctxlog.With(ctx, "block", e.id)
	ctx, span := tracer.Start(ctx, "block.execute", trace.WithAttributes(
		attribute.String("block.id", e.id),
		attribute.String("block.key", block.KeyOf(e.block)),
	))
	defer span.End()

	logger := ctxlog.FromContext(ctx)
	logger.Info("▶️ Executing block.", "name", e.block.Name())
	_ = rs.store.SetStatus(ctx, *e.addr, nodestore.StatusRunning)
	g.emit(Event{Type: EventBlockStarted, RunID: rs.id, Block: e.id, Status: nodestore.StatusRunning})

	start := time.Now()
	err := safeExecute(ctx, e.block, g.stopper)
	elapsed := time.Since(start)

	g.mu.Lock()
	dirty := rs.dirty
	rs.current = nil
	rs.dirty = nil
	g.mu.Unlock()

	var status nodestore.Status
	switch {
	case errors.Is(err, stopper.ErrStopped):
		status = nodestore.StatusStopped
		logger.Info("🛑 Block stopped.", "duration", elapsed)
		err = nil
	case err != nil:
		status = nodestore.StatusFailed
		logger.Error("Block failed.", "error", err, "duration", elapsed)
	case block.IsUserInput(e.block):
		status = nodestore.StatusAwaitingInput
		logger.Info("⏸️ Block awaiting input.")
	default:
		if perr := g.propagate(rs, e, dirty); perr != nil {
			status = nodestore.StatusFailed
			err = perr
			logger.Error("Propagation failed.", "error", err)
			break
		}
		status = nodestore.StatusCompleted
		logger.Info("✅ Block completed.", "duration", elapsed)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		_ = rs.store.SetError(ctx, *e.addr, err)
	}
	span.SetAttributes(attribute.String("block.status", status.String()))
	_ = rs.store.SetStatus(ctx, *e.addr, status)
	g.emit(Event{Type: EventBlockFinished, RunID: rs.id, Block: e.id, Status: status, Err: err, Duration: elapsed})
	return status, err
}

// propagate copies the named outputs of e into every input they feed.
func (g *Graph) propagate(rs *runState, e *entry, outputs []string) error {
	for _, name := range outputs {
		out, ok := e.block.Outputs().Get(name)
		if !ok {
			continue
		}
		v := out.Value()
		for _, b := range e.subs[name] {
			in, _ := b.target.block.Inputs().Get(b.input)
			if err := in.Set(v); err != nil {
				return fmt.Errorf("propagate %s.%s to %s.%s: %w", e.id, name, b.target.id, b.input, err)
			}
			if rs.supplied[b.target.id] == nil {
				rs.supplied[b.target.id] = make(map[string]bool)
			}
			rs.supplied[b.target.id][b.input] = true
			b.target.everSupplied[b.input] = true
		}
	}
	return nil
}

func (g *Graph) skipRemaining(ctx context.Context, rs *runState, ids []string, entries map[string]*entry) {
	for _, id := range ids {
		if !rs.reachable[id] {
			continue
		}
		_ = rs.store.SetStatus(ctx, *entries[id].addr, nodestore.StatusSkipped)
	}
}

// safeExecute turns a panicking block into an error.
func safeExecute(ctx context.Context, b block.Block, s *stopper.Stopper) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return b.Execute(ctx, s)
}

func logRun(ctx context.Context, r *RunResult) {
	logger := ctxlog.FromContext(ctx)
	switch r.Status {
	case RunCompleted:
		logger.Info("🏁 Run completed.", "executed", len(r.Executed), "duration", r.Duration())
	case RunIncomplete:
		logger.Info("🏁 Run incomplete.", "executed", len(r.Executed), "duration", r.Duration())
	case RunFailed:
		logger.Error("🏁 Run failed.", "block", r.Failed, "error", r.Err, "duration", r.Duration())
	}
}
