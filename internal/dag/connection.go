package dag

import (
	"fmt"
	"strings"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/param"
)

// Mapping pairs a source output with a target input.
type Mapping struct {
	From string
	To   string
}

// Map is shorthand for Mapping{From: from, To: to}.
func Map(from, to string) Mapping {
	return Mapping{From: from, To: to}
}

// Connection is an immutable, validated wiring between two blocks.
type Connection struct {
	source   block.Block
	target   block.Block
	mappings []Mapping
}

func (c *Connection) Source() block.Block { return c.source }
func (c *Connection) Target() block.Block { return c.target }

// Mappings returns a copy of the parameter pairs in declaration order.
func (c *Connection) Mappings() []Mapping {
	out := make([]Mapping, len(c.mappings))
	copy(out, c.mappings)
	return out
}

func (c *Connection) String() string {
	pairs := make([]string, len(c.mappings))
	for i, m := range c.mappings {
		pairs[i] = m.From + "->" + m.To
	}
	return fmt.Sprintf("%s -> %s [%s]", c.source.ID(), c.target.ID(), strings.Join(pairs, ", "))
}

// binding is one subscription of a target input to a source output.
type binding struct {
	target *entry
	input  string
}

// feed is the source of a connected input.
type feed struct {
	source *entry
	output string
}

// Connect validates and adds a connection from src to dst. Blocks not yet in
// the graph are added. Nothing is changed when an error is returned.
func (g *Graph) Connect(src, dst block.Block, mappings ...Mapping) (*Connection, error) {
	if len(mappings) == 0 {
		return nil, fmt.Errorf("connect %s -> %s: %w", src.ID(), dst.ID(), ErrNoMappings)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil {
		return nil, fmt.Errorf("connect %s -> %s: %w", src.ID(), dst.ID(), ErrRunInProgress)
	}

	srcEntry, err := g.resolveLocked(src)
	if err != nil {
		return nil, err
	}
	dstEntry, err := g.resolveLocked(dst)
	if err != nil {
		return nil, err
	}

	fail := func(kind error, name, format string, args ...any) (*Connection, error) {
		return nil, &ConnectionError{
			Kind:   kind,
			Source: src.ID(),
			Target: dst.ID(),
			Param:  name,
			Msg:    fmt.Sprintf(format, args...),
		}
	}

	seen := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		out, ok := src.Outputs().Get(m.From)
		if !ok {
			return fail(ErrUnknownParameter, m.From, "block %q has no output %q", src.ID(), m.From)
		}
		in, ok := dst.Inputs().Get(m.To)
		if !ok {
			return fail(ErrUnknownParameter, m.To, "block %q has no input %q", dst.ID(), m.To)
		}
		if !param.Compatible(out.Type(), in.Type()) {
			return fail(ErrTypeMismatch, m.To, "output %q is %s, input %q is %s",
				m.From, out.Type().FriendlyName(), m.To, in.Type().FriendlyName())
		}
		if existing, ok := dstEntry.incoming[m.To]; ok {
			return fail(ErrDuplicateTarget, m.To, "input %q is already fed by %s.%s",
				m.To, existing.source.block.ID(), existing.output)
		}
		if _, ok := g.bindings[dst.ID()][m.To]; ok {
			return fail(ErrDuplicateTarget, m.To, "input %q is bound to a constant", m.To)
		}
		if seen[m.To] {
			return fail(ErrDuplicateTarget, m.To, "input %q is mapped twice", m.To)
		}
		seen[m.To] = true
	}

	if src.ID() == dst.ID() {
		return fail(ErrCycleDetected, "", "block %q cannot feed itself", src.ID())
	}
	if g.topo.Reaches(dst.ID(), src.ID()) {
		return fail(ErrCycleDetected, "", "%q already depends on %q", src.ID(), dst.ID())
	}

	// Validation passed; from here on nothing can fail.
	for _, e := range []*entry{srcEntry, dstEntry} {
		if _, ok := g.entries[e.id]; !ok {
			g.insertLocked(e)
		}
	}
	if err := g.topo.AddEdge(src.ID(), dst.ID()); err != nil {
		// Unreachable: both nodes exist and the ids differ.
		panic(err)
	}

	conn := &Connection{source: src, target: dst, mappings: make([]Mapping, len(mappings))}
	copy(conn.mappings, mappings)
	for _, m := range mappings {
		srcEntry.subs[m.From] = append(srcEntry.subs[m.From], binding{target: dstEntry, input: m.To})
		dstEntry.incoming[m.To] = feed{source: srcEntry, output: m.From}
		if !srcEntry.watched[m.From] {
			srcEntry.watched[m.From] = true
			out, _ := src.Outputs().Get(m.From)
			out.Guard(g.outputGuard(srcEntry, m.From))
			out.Watch(g.outputWatcher(srcEntry, m.From))
		}
	}
	g.conns = append(g.conns, conn)
	g.order = nil

	g.logger.Debug("Connection added.", "dag", g.key, "connection", conn.String())
	return conn, nil
}
