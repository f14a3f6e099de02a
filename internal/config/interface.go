package config

import (
	"context"

	"github.com/vk/blockflow/internal/block"
)

// Library constructs blocks by registry key. The registry implements it.
type Library interface {
	NewBlock(key, id string) (block.Block, error)
}

// Codec is implemented by every dag file format.
type Codec interface {
	// DecodeDags parses every dag defined in src. filename is used for
	// diagnostics only.
	DecodeDags(ctx context.Context, src []byte, filename string) ([]*DagSpec, error)
	// EncodeDag renders a single dag.
	EncodeDag(spec *DagSpec) ([]byte, error)
}
