package config

import (
	"fmt"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/dag"
)

// Describe captures the structure of g: blocks with their registry keys,
// display names and bound arguments, and connections with their ordered
// mappings. Every block must have been constructed from the registry.
func Describe(g *dag.Graph) (*DagSpec, error) {
	spec := &DagSpec{
		Key:   g.Key(),
		Doc:   g.Doc(),
		Title: g.Title(),
	}

	for _, b := range g.Blocks() {
		key := block.KeyOf(b)
		if key == "" {
			return nil, fmt.Errorf("block '%s' has no registry key and cannot be persisted", b.ID())
		}
		bs := BlockSpec{ID: b.ID(), Type: key}
		if b.Name() != b.ID() {
			bs.Name = b.Name()
		}
		if args := g.Bindings(b.ID()); len(args) > 0 {
			bs.Arguments = args
		}
		spec.Blocks = append(spec.Blocks, bs)
	}

	for _, c := range g.Connections() {
		cs := ConnectionSpec{Source: c.Source().ID(), Target: c.Target().ID()}
		for _, m := range c.Mappings() {
			cs.Mappings = append(cs.Mappings, MappingSpec{From: m.From, To: m.To})
		}
		spec.Connections = append(spec.Connections, cs)
	}
	return spec, nil
}
