package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/dag"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

// ErrNotConfigBlock is returned by UpdateConfig for blocks without an
// out_config output.
var ErrNotConfigBlock = errors.New("block does not produce out_config")

const (
	configOutput = "out_config"
	configInput  = "in_arg"
	// configBlockID is the identity of the standalone config block.
	configBlockID = "config"
)

// UpdateConfig runs the config-producing block registered under key on its
// own, with arg as its in_arg when given, and merges the settings it
// produces over the settings file.
func (a *App) UpdateConfig(ctx context.Context, key, arg string) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx).With("block", key)

	b, err := a.registry.NewBlock(key, configBlockID)
	if err != nil {
		return err
	}
	out, ok := b.Outputs().Get(configOutput)
	if !ok {
		return fmt.Errorf("'%s': %w", key, ErrNotConfigBlock)
	}

	g := dag.New("settings."+configBlockID, dag.WithStopper(stopper.New()), dag.WithLogger(logger))
	if err := g.AddBlock(b); err != nil {
		return err
	}
	if arg != "" {
		if _, ok := b.Inputs().Get(configInput); ok {
			if err := g.Bind(configBlockID, configInput, cty.StringVal(arg)); err != nil {
				return err
			}
		} else {
			logger.Warn("Block takes no argument, ignoring it.", "arg", arg)
		}
	}

	if _, err := g.Run(ctx); err != nil {
		return err
	}
	text, err := param.As[string](out)
	if err != nil {
		return fmt.Errorf("'%s': %s: %w", key, configOutput, err)
	}
	produced, err := a.hclCodec.DecodeSettings(ctx, []byte(text), key+"."+configOutput)
	if err != nil {
		return &ConfigError{Op: "parse settings from", Path: key, Err: err}
	}

	path := a.config.SettingsPath
	existing, err := a.hclCodec.LoadSettings(ctx, path)
	if err != nil {
		return &ConfigError{Op: "load settings", Path: path, Err: err}
	}
	if err := a.hclCodec.WriteSettings(ctx, path, existing.Merge(produced)); err != nil {
		return &ConfigError{Op: "write settings", Path: path, Err: err}
	}
	logger.Info("✅ Settings updated.", "path", path, "blocks", produced.Keys())
	return nil
}
