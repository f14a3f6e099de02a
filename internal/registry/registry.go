package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/dag"
)

// Module is the interface that all plugin packages implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Kind tells block entries from dag entries.
type Kind int

const (
	KindBlock Kind = iota
	KindDag
)

func (k Kind) String() string {
	if k == KindDag {
		return "dag"
	}
	return "block"
}

// BlockConstructor builds a block with the given identity.
type BlockConstructor func(id string) (block.Block, error)

// DagConstructor builds a ready-to-run graph.
type DagConstructor func(ctx context.Context) (*dag.Graph, error)

// Entry is one registration.
type Entry struct {
	Key    string
	Doc    string
	Origin string
	Kind   Kind
	// Duplicate is set on registrations whose key was registered before.
	Duplicate bool

	newBlock BlockConstructor
	newDag   DagConstructor
}

// Registry holds the registrations of a single application instance.
type Registry struct {
	mu     sync.RWMutex
	blocks []*Entry
	dags   []*Entry
	// current maps a key to its latest registration, per kind.
	current map[Kind]map[string]*Entry
	logger  *slog.Logger
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		current: map[Kind]map[string]*Entry{
			KindBlock: {},
			KindDag:   {},
		},
		logger: slog.Default(),
	}
}

// SetLogger replaces the logger used for registration messages.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Load registers modules in the given order.
func (r *Registry) Load(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}
