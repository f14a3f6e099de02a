package hcl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/vk/blockflow/internal/config"
	"github.com/vk/blockflow/internal/ctxlog"
)

// LoadSettings reads a settings file. A missing file yields empty settings.
func (c *Codec) LoadSettings(ctx context.Context, path string) (config.Settings, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		ctxlog.FromContext(ctx).Debug("Settings file does not exist, starting empty.", "path", path)
		return config.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	return c.DecodeSettings(ctx, src, path)
}

// WriteSettings replaces the settings file at path.
func (c *Codec) WriteSettings(ctx context.Context, path string, s config.Settings) error {
	if err := os.WriteFile(path, c.EncodeSettings(s), 0o644); err != nil {
		return fmt.Errorf("failed to write settings %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Debug("Wrote settings file.", "path", path, "blocks", len(s))
	return nil
}
