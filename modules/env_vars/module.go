package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Env publishes the process environment as a map, optionally limited to
// variables with a given prefix.
type Env struct {
	block.Base
}

// NewEnv creates an Env block.
func NewEnv(id string) *Env {
	e := &Env{Base: block.NewBase("env_vars.env", id, block.WithDoc("Read the process environment."))}
	e.DeclareInput("prefix", cty.String, param.WithDefault(cty.StringVal("")), param.WithDoc("Only variables starting with this prefix."))
	e.DeclareOutput("all", cty.Map(cty.String), param.WithDoc("Variable name to value."))
	return e
}

func (e *Env) Execute(ctx context.Context, _ *stopper.Stopper) error {
	prefix, err := param.As[string](e.In("prefix"))
	if err != nil {
		return err
	}

	envMap := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		pair := strings.SplitN(kv, "=", 2)
		if len(pair) == 2 && strings.HasPrefix(pair[0], prefix) {
			envMap[pair[0]] = cty.StringVal(pair[1])
		}
	}
	ctxlog.FromContext(ctx).Debug("Collected environment.", "block", e.ID(), "prefix", prefix, "count", len(envMap))

	if len(envMap) == 0 {
		return e.Out("all").Set(cty.MapValEmpty(cty.String))
	}
	return e.Out("all").Set(cty.MapVal(envMap))
}

// Register registers the block with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBlock("env_vars", "env_vars.env", "Read the process environment.", func(id string) (block.Block, error) {
		return NewEnv(id), nil
	})
}
