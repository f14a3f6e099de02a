package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/blockflow/internal/config"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Codec is the HCL implementation of config.Codec.
type Codec struct{}

var _ config.Codec = (*Codec)(nil)

// NewCodec creates a new HCL codec.
func NewCodec() *Codec {
	return &Codec{}
}

// DecodeDags parses every `dag` block in src.
func (c *Codec) DecodeDags(ctx context.Context, src []byte, filename string) ([]*config.DagSpec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding HCL dag file.", "file", filename)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	specs := make([]*config.DagSpec, 0, len(root.Dags))
	for _, d := range root.Dags {
		spec, err := translateDag(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		specs = append(specs, spec)
	}
	logger.Debug("Decoded HCL dag file.", "file", filename, "dags", len(specs))
	return specs, nil
}

func translateDag(ctx context.Context, d *dagBlock) (*config.DagSpec, error) {
	if _, err := nodeid.ParseKey(d.Key); err != nil {
		return nil, fmt.Errorf("dag '%s': invalid key: %w", d.Key, err)
	}
	spec := &config.DagSpec{Key: d.Key, Doc: d.Doc, Title: d.Title}

	for _, b := range d.Blocks {
		if _, err := nodeid.ParseIdentity(b.ID); err != nil {
			return nil, fmt.Errorf("dag '%s': invalid block identity '%s': %w", d.Key, b.ID, err)
		}
		bs := config.BlockSpec{ID: b.ID, Type: b.Type, Name: b.Name}
		if b.Arguments != nil {
			args, err := evalAttributes(ctx, b.Arguments.Body)
			if err != nil {
				return nil, fmt.Errorf("dag '%s': block '%s': %w", d.Key, b.ID, err)
			}
			if len(args) > 0 {
				bs.Arguments = args
			}
		}
		spec.Blocks = append(spec.Blocks, bs)
	}

	for _, c := range d.Connections {
		cs := config.ConnectionSpec{Source: c.Source, Target: c.Target}
		for _, m := range c.Mappings {
			cs.Mappings = append(cs.Mappings, config.MappingSpec{From: m.From, To: m.To})
		}
		spec.Connections = append(spec.Connections, cs)
	}
	return spec, nil
}

// evalAttributes evaluates every attribute of body as a constant.
func evalAttributes(ctx context.Context, body hcl.Body) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("argument '%s': %w", name, diags)
		}
		logger.Debug("Evaluated argument.", "name", name, "type", val.Type().FriendlyName())
		out[name] = val
	}
	return out, nil
}

// DecodeSettings parses a settings file.
func (c *Codec) DecodeSettings(ctx context.Context, src []byte, filename string) (config.Settings, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse settings %s: %w", filename, diags)
	}

	var root settingsRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode settings %s: %w", filename, diags)
	}

	settings := config.Settings{}
	for _, b := range root.Blocks {
		if _, err := nodeid.ParseKey(b.Key); err != nil {
			return nil, fmt.Errorf("settings %s: invalid block key '%s': %w", filename, b.Key, err)
		}
		args, err := evalAttributes(ctx, b.Body)
		if err != nil {
			return nil, fmt.Errorf("settings %s: block '%s': %w", filename, b.Key, err)
		}
		for name, v := range args {
			settings.Set(b.Key, name, v)
		}
	}
	ctxlog.FromContext(ctx).Debug("Decoded settings.", "file", filename, "blocks", len(settings))
	return settings, nil
}
