// Package settings provides a config-producing block that turns a compact
// argument string into settings file text.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/config"
	"github.com/vk/blockflow/internal/ctxlog"
	bfhcl "github.com/vk/blockflow/internal/hcl"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// FromArgs reads in_arg of the form `key.param=value;key.param=value` and
// writes the equivalent settings file to out_config. Values are HCL
// expressions; anything that does not parse as one is taken as a string.
type FromArgs struct {
	block.Base
}

// NewFromArgs creates a FromArgs block.
func NewFromArgs(id string) *FromArgs {
	f := &FromArgs{Base: block.NewBase("settings.from_args", id, block.WithDoc("Build settings from key.param=value pairs."))}
	f.DeclareInput("in_arg", cty.String, param.WithDefault(cty.StringVal("")), param.WithDoc("Semicolon separated key.param=value pairs."))
	f.DeclareOutput("out_config", cty.String, param.WithDoc("Settings file text."))
	return f
}

func (f *FromArgs) Execute(ctx context.Context, _ *stopper.Stopper) error {
	arg, err := param.As[string](f.In("in_arg"))
	if err != nil {
		return err
	}
	s, err := ParseArgs(arg)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Built settings from arguments.", "block", f.ID(), "blocks", len(s))
	return f.Out("out_config").Set(cty.StringVal(string(bfhcl.NewCodec().EncodeSettings(s))))
}

// ParseArgs parses `key.param=value` pairs separated by semicolons. The
// parameter name is the last dotted segment of the left-hand side.
func ParseArgs(arg string) (config.Settings, error) {
	s := config.Settings{}
	for _, pair := range strings.Split(arg, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		lhs, rhs, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("setting %q: expected key.param=value", pair)
		}
		lhs = strings.TrimSpace(lhs)
		dot := strings.LastIndex(lhs, ".")
		if dot <= 0 || dot == len(lhs)-1 {
			return nil, fmt.Errorf("setting %q: expected key.param on the left", pair)
		}
		s.Set(lhs[:dot], lhs[dot+1:], parseValue(strings.TrimSpace(rhs)))
	}
	return s, nil
}

func parseValue(raw string) cty.Value {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "arg", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.StringVal(raw)
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.StringVal(raw)
	}
	return v
}

// Register registers the block with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBlock("settings", "settings.from_args", "Build settings from key.param=value pairs.", func(id string) (block.Block, error) {
		return NewFromArgs(id), nil
	})
}
