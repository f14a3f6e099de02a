package inmemorystore

import (
	"context"
	"sync"

	"github.com/vk/blockflow/internal/nodeid"
	"github.com/vk/blockflow/internal/nodestore"
)

// Store is a sync.Map backed nodestore.Store.
type Store struct {
	states sync.Map // Key: block identity, Value: nodestore.Status
	errors sync.Map // Key: block identity, Value: error
}

func New() nodestore.Store {
	return &Store{}
}

func (s *Store) SetStatus(ctx context.Context, id nodeid.Address, status nodestore.Status) error {
	s.states.Store(id.String(), status)
	return nil
}

func (s *Store) GetStatus(ctx context.Context, id nodeid.Address) (nodestore.Status, error) {
	status, ok := s.states.Load(id.String())
	if !ok {
		return nodestore.StatusPending, nil
	}
	return status.(nodestore.Status), nil
}

func (s *Store) SetError(ctx context.Context, id nodeid.Address, blockErr error) error {
	s.errors.Store(id.String(), blockErr)
	return nil
}

func (s *Store) GetError(ctx context.Context, id nodeid.Address) (error, error) {
	err, ok := s.errors.Load(id.String())
	if !ok {
		return nil, nil // If not found, there is no error.
	}
	return err.(error), nil
}

func (s *Store) Snapshot(ctx context.Context) (map[string]nodestore.Status, error) {
	out := make(map[string]nodestore.Status)
	s.states.Range(func(k, v any) bool {
		out[k.(string)] = v.(nodestore.Status)
		return true
	})
	return out, nil
}
