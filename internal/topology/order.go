package topology

import (
	"container/heap"
	"fmt"
)

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// naming the first node found on a cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.nodes))

	var visit func(n *node) error
	visit = func(n *node) error {
		switch color[n.id] {
		case black:
			return nil
		case grey:
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}
		color[n.id] = grey
		for _, id := range ids(n.dependents) {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
		color[n.id] = black
		return nil
	}

	for _, n := range g.sortedNodes() {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// Order returns a topological ordering of all nodes using Kahn's algorithm.
// Among nodes that are ready at the same time, the one added first comes
// first. It fails if the graph contains a cycle.
func (g *Graph) Order() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	inDegree := make(map[string]int, len(g.nodes))
	ready := &seqHeap{}
	for _, n := range g.nodes {
		inDegree[n.id] = len(n.deps)
		if len(n.deps) == 0 {
			heap.Push(ready, n)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		order = append(order, n.id)
		for _, d := range n.dependents {
			inDegree[d.id]--
			if inDegree[d.id] == 0 {
				heap.Push(ready, d)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("cycle detected: %d of %d nodes could not be ordered", len(g.nodes)-len(order), len(g.nodes))
	}
	return order, nil
}

// seqHeap is a min-heap of nodes by insertion sequence.
type seqHeap []*node

func (h seqHeap) Len() int           { return len(h) }
func (h seqHeap) Less(i, j int) bool { return h[i].seq < h[j].seq }
func (h seqHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *seqHeap) Push(x any)        { *h = append(*h, x.(*node)) }
func (h *seqHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
