package config

import (
	"context"
	"maps"
	"slices"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/dag"
	"github.com/zclconf/go-cty/cty"
)

// Settings holds personal run configuration: for each block registry key,
// the values to bind to its inputs.
type Settings map[string]map[string]cty.Value

// Set records value for param of every block with the given key.
func (s Settings) Set(key, param string, v cty.Value) {
	if s[key] == nil {
		s[key] = make(map[string]cty.Value)
	}
	s[key][param] = v
}

// Merge returns a copy of s with every value of other laid over it.
func (s Settings) Merge(other Settings) Settings {
	out := make(Settings, len(s)+len(other))
	for _, src := range []Settings{s, other} {
		for key, params := range src {
			for name, v := range params {
				out.Set(key, name, v)
			}
		}
	}
	return out
}

// Keys returns the block keys in sorted order.
func (s Settings) Keys() []string {
	return sortedKeys(s)
}

// Apply binds the settings to every block of g whose registry key has an
// entry. Inputs fed by a connection are skipped with a warning; unknown
// parameters and conversion failures are returned.
func (s Settings) Apply(ctx context.Context, g *dag.Graph) error {
	logger := ctxlog.FromContext(ctx)
	for _, b := range g.Blocks() {
		params, ok := s[block.KeyOf(b)]
		if !ok {
			continue
		}
		for _, name := range sortedKeys(params) {
			if g.IsConnected(b.ID(), name) {
				logger.Warn("Setting ignored for connected input.", "block", b.ID(), "input", name)
				continue
			}
			if err := g.Bind(b.ID(), name, params[name]); err != nil {
				return err
			}
			logger.Debug("Applied setting.", "block", b.ID(), "input", name)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
