package app

import (
	"context"
	"fmt"

	"github.com/vk/blockflow/internal/config"
	"github.com/vk/blockflow/internal/yamlspec"
)

// Dump constructs the dag registered under key and writes its definition
// to the output in the given format ("hcl" or "yaml").
func (a *App) Dump(ctx context.Context, key, format string) error {
	ctx = a.withLogger(ctx)

	var codec config.Codec
	switch format {
	case "", "hcl":
		codec = a.hclCodec
	case "yaml", "yml":
		codec = yamlspec.NewCodec()
	default:
		return fmt.Errorf("unknown dump format %q: must be 'hcl' or 'yaml'", format)
	}

	g, err := a.registry.NewDag(ctx, key)
	if err != nil {
		return err
	}
	spec, err := config.Describe(g)
	if err != nil {
		return &ConfigError{Op: "describe dag", Path: key, Err: err}
	}
	out, err := codec.EncodeDag(spec)
	if err != nil {
		return &ConfigError{Op: "encode dag", Path: key, Err: err}
	}
	a.logger.Debug("Dumping dag.", "dag", key, "format", format, "bytes", len(out))
	_, err = a.outW.Write(out)
	return err
}
