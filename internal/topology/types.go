package topology

import "sync"

// Graph is a collection of nodes and their dependencies.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// seq is the insertion counter used to order ties.
	seq int
}

// node is a single vertex. It is un-exported so callers interact through
// string IDs only.
type node struct {
	id  string
	seq int
	// deps holds the set of nodes that this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the set of nodes that depend on this node (successors).
	dependents map[string]*node
}

// Edge is a directed edge From → To, meaning To depends on From.
type Edge struct {
	From string
	To   string
}
