package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/nodeid"
)

// probeID is the identity used when constructing blocks for validation and
// verbose listings.
const probeID = "probe"

// Validate constructs every current block registration once and checks that
// it yields a usable block: the constructor succeeds, the identity is kept,
// and every parameter name is a valid identifier. All problems are joined
// into one error.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	r.mu.RLock()
	var entries []*Entry
	for _, e := range r.blocks {
		if r.current[KindBlock][e.Key] == e {
			entries = append(entries, e)
		}
	}
	r.mu.RUnlock()

	var errs []error
	for _, e := range entries {
		b, err := e.NewBlock(probeID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if b.ID() != probeID {
			errs = append(errs, fmt.Errorf("block '%s': constructor ignored the identity (got %q)", e.Key, b.ID()))
		}
		for _, set := range []struct {
			dir  string
			name []string
		}{{"input", b.Inputs().Names()}, {"output", b.Outputs().Names()}} {
			for _, name := range set.name {
				if _, err := nodeid.ParseIdentity(name); err != nil {
					errs = append(errs, fmt.Errorf("block '%s': invalid %s name: %w", e.Key, set.dir, err))
				}
			}
		}
		logger.Debug("Validated block registration.", "key", e.Key, "inputs", b.Inputs().Len(), "outputs", b.Outputs().Len())
	}
	return errors.Join(errs...)
}

// Probe constructs a throwaway instance of a block entry for listings.
func (e *Entry) Probe() (block.Block, error) {
	return e.NewBlock(probeID)
}
