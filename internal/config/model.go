package config

import (
	"github.com/zclconf/go-cty/cty"
)

// DagSpec is the persisted form of a dag.
type DagSpec struct {
	Key         string
	Doc         string
	Title       string
	Blocks      []BlockSpec
	Connections []ConnectionSpec
}

// BlockSpec is one block instance of a dag.
type BlockSpec struct {
	// ID is the block identity inside the dag.
	ID string
	// Type is the registry key the block is constructed from.
	Type string
	// Name is the display name. Empty means the identity.
	Name string
	// Arguments are constants bound to unconnected inputs.
	Arguments map[string]cty.Value
}

// ConnectionSpec is one connection between two blocks of a dag.
type ConnectionSpec struct {
	Source   string
	Target   string
	Mappings []MappingSpec
}

// MappingSpec pairs a source output with a target input.
type MappingSpec struct {
	From string
	To   string
}

// Block returns the spec of block id.
func (s *DagSpec) Block(id string) (*BlockSpec, bool) {
	for i := range s.Blocks {
		if s.Blocks[i].ID == id {
			return &s.Blocks[i], true
		}
	}
	return nil, false
}
