package config

import (
	"context"
	"fmt"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/dag"
)

type namer interface {
	SetName(name string)
}

// Build constructs the dag described by spec. Blocks are created through
// lib and added in spec order, arguments are bound, then connections are
// made. Additional options are passed to dag.New.
func Build(ctx context.Context, spec *DagSpec, lib Library, opts ...dag.Option) (*dag.Graph, error) {
	logger := ctxlog.FromContext(ctx).With("dag", spec.Key)
	logger.Debug("Building dag from spec.", "blocks", len(spec.Blocks), "connections", len(spec.Connections))

	opts = append([]dag.Option{dag.WithDoc(spec.Doc), dag.WithTitle(spec.Title)}, opts...)
	g := dag.New(spec.Key, opts...)

	blocks := make(map[string]block.Block, len(spec.Blocks))
	for _, bs := range spec.Blocks {
		b, err := lib.NewBlock(bs.Type, bs.ID)
		if err != nil {
			return nil, fmt.Errorf("dag '%s': block '%s': %w", spec.Key, bs.ID, err)
		}
		if bs.Name != "" {
			if n, ok := b.(namer); ok {
				n.SetName(bs.Name)
			}
		}
		if err := g.AddBlock(b); err != nil {
			return nil, fmt.Errorf("dag '%s': %w", spec.Key, err)
		}
		blocks[bs.ID] = b
	}

	for _, bs := range spec.Blocks {
		for _, name := range sortedKeys(bs.Arguments) {
			if err := g.Bind(bs.ID, name, bs.Arguments[name]); err != nil {
				return nil, fmt.Errorf("dag '%s': %w", spec.Key, err)
			}
		}
	}

	for _, cs := range spec.Connections {
		src, ok := blocks[cs.Source]
		if !ok {
			return nil, fmt.Errorf("dag '%s': connection %s -> %s: %w %q", spec.Key, cs.Source, cs.Target, dag.ErrUnknownBlock, cs.Source)
		}
		dst, ok := blocks[cs.Target]
		if !ok {
			return nil, fmt.Errorf("dag '%s': connection %s -> %s: %w %q", spec.Key, cs.Source, cs.Target, dag.ErrUnknownBlock, cs.Target)
		}
		mappings := make([]dag.Mapping, len(cs.Mappings))
		for i, m := range cs.Mappings {
			mappings[i] = dag.Map(m.From, m.To)
		}
		if _, err := g.Connect(src, dst, mappings...); err != nil {
			return nil, fmt.Errorf("dag '%s': %w", spec.Key, err)
		}
	}

	logger.Debug("Built dag from spec.")
	return g, nil
}
