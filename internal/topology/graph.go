package topology

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a node with the given ID. Adding an existing ID does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		seq:        g.seq,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.seq++
}

// HasNode reports whether id is part of the graph.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// AddEdge creates a directed edge from fromID to toID, meaning toID depends
// on fromID. Adding an existing edge is a no-op. The edge is not checked for
// cycles; callers use Reaches first.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode
	return nil
}

// HasEdge reports whether the edge fromID → toID exists.
func (g *Graph) HasEdge(fromID, toID string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[fromID]
	if !ok {
		return false
	}
	_, ok = n.dependents[toID]
	return ok
}

// Dependencies returns the IDs the given node depends on, in insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.deps), nil
}

// Dependents returns the IDs that depend on the given node, in insertion order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.dependents), nil
}

// Edges returns every edge, ordered by source then target insertion order.
func (g *Graph) Edges() []Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var out []Edge
	for _, from := range g.sortedNodes() {
		for _, to := range ids(from.dependents) {
			out = append(out, Edge{From: from.id, To: to})
		}
	}
	return out
}

// Reaches reports whether toID can be reached from fromID by following
// edges. A node reaches itself.
func (g *Graph) Reaches(fromID, toID string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	start, ok := g.nodes[fromID]
	if !ok {
		return false
	}
	seen := map[string]bool{}
	stack := []*node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.id == toID {
			return true
		}
		if seen[n.id] {
			continue
		}
		seen[n.id] = true
		for _, d := range n.dependents {
			stack = append(stack, d)
		}
	}
	return false
}

// Descendants returns every node reachable from id, excluding id itself.
func (g *Graph) Descendants(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	start, ok := g.nodes[id]
	if !ok {
		return nil
	}
	seen := map[string]*node{}
	stack := []*node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range n.dependents {
			if _, ok := seen[d.id]; !ok {
				seen[d.id] = d
				stack = append(stack, d)
			}
		}
	}
	return ids(seen)
}

func (g *Graph) sortedNodes() []*node {
	out := make([]*node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func ids(set map[string]*node) []string {
	nodes := make([]*node, 0, len(set))
	for _, n := range set {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].seq < nodes[j].seq })
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}
