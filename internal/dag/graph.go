package dag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/nodeid"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/vk/blockflow/internal/topology"
	"github.com/zclconf/go-cty/cty"
)

// Graph owns blocks, connections and the Stopper shared by their runs.
type Graph struct {
	key     string
	doc     string
	title   string
	logger  *slog.Logger
	stopper *stopper.Stopper

	// mu guards everything below. It is never held while a block executes.
	mu        sync.Mutex
	entries   map[string]*entry
	ids       []string
	conns     []*Connection
	bindings  map[string]map[string]cty.Value
	topo      *topology.Graph
	order     []string
	observers []Observer
	active    *runState
	last      *RunResult
}

// entry is the graph-side bookkeeping for one block.
type entry struct {
	id    string
	addr  *nodeid.Address
	block block.Block
	// subs maps an output name to the inputs it feeds.
	subs map[string][]binding
	// incoming maps a connected input name to its source.
	incoming map[string]feed
	// watched records outputs that already carry the graph watcher.
	watched map[string]bool
	// everSupplied records connected inputs that received a value in any
	// run. Only the coordinator touches it.
	everSupplied map[string]bool
}

// Option configures a Graph.
type Option func(*Graph)

func WithDoc(doc string) Option { return func(g *Graph) { g.doc = doc } }

// WithTitle sets a display title, defaulting to the key.
func WithTitle(title string) Option { return func(g *Graph) { g.title = title } }

func WithLogger(logger *slog.Logger) Option { return func(g *Graph) { g.logger = logger } }

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(g *Graph) { g.observers = append(g.observers, o) }
}

// WithStopper makes the graph use s instead of a private Stopper.
func WithStopper(s *stopper.Stopper) Option { return func(g *Graph) { g.stopper = s } }

// New creates an empty graph identified by key.
func New(key string, opts ...Option) *Graph {
	g := &Graph{
		key:      key,
		title:    key,
		entries:  make(map[string]*entry),
		bindings: make(map[string]map[string]cty.Value),
		topo:     topology.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.stopper == nil {
		g.stopper = stopper.New()
	}
	return g
}

func (g *Graph) Key() string                { return g.key }
func (g *Graph) Doc() string                { return g.doc }
func (g *Graph) Title() string              { return g.title }
func (g *Graph) Stopper() *stopper.Stopper  { return g.stopper }
func (g *Graph) Logger() *slog.Logger       { return g.logger }
func (g *Graph) Edges() []topology.Edge     { return g.topo.Edges() }

// SetLogger replaces the logger used for runs started after the call.
func (g *Graph) SetLogger(logger *slog.Logger) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logger = logger
}

// AddBlock adds b. Adding the same block twice is a no-op; adding a
// different block under an existing identity fails.
func (g *Graph) AddBlock(b block.Block) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil {
		return fmt.Errorf("add block %q: %w", b.ID(), ErrRunInProgress)
	}
	e, err := g.resolveLocked(b)
	if err != nil {
		return err
	}
	if _, ok := g.entries[e.id]; !ok {
		g.insertLocked(e)
	}
	return nil
}

// resolveLocked returns the entry for b, creating a detached one when b is
// not part of the graph yet.
func (g *Graph) resolveLocked(b block.Block) (*entry, error) {
	if e, ok := g.entries[b.ID()]; ok {
		if e.block != b {
			return nil, fmt.Errorf("block %q: %w", b.ID(), ErrDuplicateBlock)
		}
		return e, nil
	}
	addr, err := nodeid.ParseIdentity(b.ID())
	if err != nil {
		return nil, fmt.Errorf("invalid block identity: %w", err)
	}
	return &entry{
		id:           b.ID(),
		addr:         addr,
		block:        b,
		subs:         make(map[string][]binding),
		incoming:     make(map[string]feed),
		watched:      make(map[string]bool),
		everSupplied: make(map[string]bool),
	}, nil
}

func (g *Graph) insertLocked(e *entry) {
	g.entries[e.id] = e
	g.ids = append(g.ids, e.id)
	g.topo.AddNode(e.id)
	g.order = nil
}

// Bind sets an unconnected input of block id to a constant that is part of
// the graph structure.
func (g *Graph) Bind(id, input string, v cty.Value) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil {
		return fmt.Errorf("bind %s.%s: %w", id, input, ErrRunInProgress)
	}
	e, ok := g.entries[id]
	if !ok {
		return fmt.Errorf("bind %s.%s: %w %q", id, input, ErrUnknownBlock, id)
	}
	in, err := e.block.Inputs().Lookup(input)
	if err != nil {
		return fmt.Errorf("bind %s.%s: %w", id, input, err)
	}
	if _, ok := e.incoming[input]; ok {
		return fmt.Errorf("bind %s.%s: %w", id, input, ErrConnectedInput)
	}
	if err := in.Set(v); err != nil {
		return fmt.Errorf("bind %s.%s: %w", id, input, err)
	}
	if g.bindings[id] == nil {
		g.bindings[id] = make(map[string]cty.Value)
	}
	g.bindings[id][input] = in.Value()
	return nil
}

// Bindings returns the constants bound to inputs of block id.
func (g *Graph) Bindings(id string) map[string]cty.Value {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]cty.Value, len(g.bindings[id]))
	for k, v := range g.bindings[id] {
		out[k] = v
	}
	return out
}

// IsConnected reports whether input of block id is fed by a connection.
func (g *Graph) IsConnected(id, input string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[id]
	if !ok {
		return false
	}
	_, ok = e.incoming[input]
	return ok
}

// Blocks returns the blocks in insertion order.
func (g *Graph) Blocks() []block.Block {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]block.Block, len(g.ids))
	for i, id := range g.ids {
		out[i] = g.entries[id].block
	}
	return out
}

// Block returns the block with the given identity.
func (g *Graph) Block(id string) (block.Block, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[id]
	if !ok {
		return nil, false
	}
	return e.block, true
}

// Connections returns the connections in creation order.
func (g *Graph) Connections() []*Connection {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Connection, len(g.conns))
	copy(out, g.conns)
	return out
}

// Order returns the cached topological order, computing it if the structure
// changed since the last call.
func (g *Graph) Order() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order, err := g.orderLocked()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(order))
	copy(out, order)
	return out, nil
}

func (g *Graph) orderLocked() ([]string, error) {
	if g.order != nil {
		return g.order, nil
	}
	order, err := g.topo.Order()
	if err != nil {
		return nil, &ConnectionError{Kind: ErrCycleDetected, Msg: err.Error()}
	}
	g.order = order
	return order, nil
}

// Stop asks the current run, and every run until Unstop, to stop.
func (g *Graph) Stop() {
	if !g.stopper.Stop() {
		return
	}
	g.logger.Info("🛑 Stop requested.", "dag", g.key)
	g.emit(Event{Type: EventStopped})
}

// Unstop clears the stop flag so the next run proceeds normally.
func (g *Graph) Unstop() {
	if !g.stopper.Unstop() {
		return
	}
	g.logger.Debug("Stop flag cleared.", "dag", g.key)
	g.emit(Event{Type: EventUnstopped})
}

// LastRun returns the result of the most recent run, or nil.
func (g *Graph) LastRun() *RunResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// baseContext is used for runs started by a plain output write, which has
// no context of its own.
func (g *Graph) baseContext() context.Context {
	return ctxlog.WithLogger(context.Background(), g.logger)
}
