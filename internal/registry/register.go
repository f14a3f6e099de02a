package registry

import (
	"fmt"

	"github.com/vk/blockflow/internal/nodeid"
)

// RegisterBlock adds a block constructor. It panics on an invalid key or a
// nil constructor, which are programming errors in the plugin.
func (r *Registry) RegisterBlock(origin, key, doc string, ctor BlockConstructor) {
	if ctor == nil {
		panic(fmt.Sprintf("registry: nil constructor for block '%s'", key))
	}
	r.add(&Entry{Key: key, Doc: doc, Origin: origin, Kind: KindBlock, newBlock: ctor})
}

// RegisterDag adds a dag constructor. It panics on an invalid key or a nil
// constructor.
func (r *Registry) RegisterDag(origin, key, doc string, ctor DagConstructor) {
	if ctor == nil {
		panic(fmt.Sprintf("registry: nil constructor for dag '%s'", key))
	}
	r.add(&Entry{Key: key, Doc: doc, Origin: origin, Kind: KindDag, newDag: ctor})
}

func (r *Registry) add(e *Entry) {
	if _, err := nodeid.ParseKey(e.Key); err != nil {
		panic(fmt.Sprintf("registry: invalid %s key: %v", e.Kind, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.current[e.Kind][e.Key]; exists {
		e.Duplicate = true
		r.logger.Warn("Duplicate registration, the latest one wins.",
			"kind", e.Kind.String(), "key", e.Key, "origin", e.Origin, "previous_origin", prev.Origin)
	} else {
		r.logger.Debug("Registering entry.", "kind", e.Kind.String(), "key", e.Key, "origin", e.Origin)
	}
	r.current[e.Kind][e.Key] = e
	if e.Kind == KindBlock {
		r.blocks = append(r.blocks, e)
	} else {
		r.dags = append(r.dags, e)
	}
}
