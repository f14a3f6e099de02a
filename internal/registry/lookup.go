package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/dag"
)

// LookupBlock returns the current registration for a block key.
func (r *Registry) LookupBlock(key string) (*Entry, error) {
	return r.lookup(KindBlock, key)
}

// LookupDag returns the current registration for a dag key.
func (r *Registry) LookupDag(key string) (*Entry, error) {
	return r.lookup(KindDag, key)
}

func (r *Registry) lookup(kind Kind, key string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.current[kind][key]
	if !ok {
		return nil, &NotFoundError{Kind: kind, Key: key}
	}
	return e, nil
}

// NewBlock constructs the block registered under key with identity id and
// stamps the key on it.
func (r *Registry) NewBlock(key, id string) (block.Block, error) {
	e, err := r.LookupBlock(key)
	if err != nil {
		return nil, err
	}
	return e.NewBlock(id)
}

// NewDag constructs the dag registered under key.
func (r *Registry) NewDag(ctx context.Context, key string) (*dag.Graph, error) {
	e, err := r.LookupDag(key)
	if err != nil {
		return nil, err
	}
	return e.NewDag(ctx)
}

// NewBlock runs the entry's constructor. Panics and nil results are
// reported as ConstructionError.
func (e *Entry) NewBlock(id string) (b block.Block, err error) {
	if e.Kind != KindBlock {
		return nil, fmt.Errorf("'%s' is a %s, not a block", e.Key, e.Kind)
	}
	defer recoverConstruction(e, &err)

	b, err = e.newBlock(id)
	if err != nil {
		return nil, &ConstructionError{Kind: KindBlock, Key: e.Key, Err: err}
	}
	if b == nil {
		return nil, &ConstructionError{Kind: KindBlock, Key: e.Key, Err: errors.New("constructor returned nil")}
	}
	if k, ok := b.(block.Keyed); ok {
		k.SetKey(e.Key)
	}
	return b, nil
}

// NewDag runs the entry's constructor. Panics and nil results are reported
// as ConstructionError.
func (e *Entry) NewDag(ctx context.Context) (g *dag.Graph, err error) {
	if e.Kind != KindDag {
		return nil, fmt.Errorf("'%s' is a %s, not a dag", e.Key, e.Kind)
	}
	defer recoverConstruction(e, &err)

	g, err = e.newDag(ctx)
	if err != nil {
		return nil, &ConstructionError{Kind: KindDag, Key: e.Key, Err: err}
	}
	if g == nil {
		return nil, &ConstructionError{Kind: KindDag, Key: e.Key, Err: errors.New("constructor returned nil")}
	}
	return g, nil
}

func recoverConstruction(e *Entry, err *error) {
	if r := recover(); r != nil {
		*err = &ConstructionError{Kind: e.Kind, Key: e.Key, Err: fmt.Errorf("panic: %v", r)}
	}
}
