package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/vk/blockflow/internal/config"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/dag"
	"github.com/vk/blockflow/internal/fsutil"
	"github.com/vk/blockflow/internal/yamlspec"
)

// dagFileCodecs maps the recognized dag file extensions to codecs.
func (a *App) dagFileCodecs() map[string]config.Codec {
	yml := yamlspec.NewCodec()
	return map[string]config.Codec{
		".hcl":  a.hclCodec,
		".yaml": yml,
		".yml":  yml,
	}
}

// loadDagFiles registers every dag defined under the configured paths with
// origin "file:<path>".
func (a *App) loadDagFiles(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	codecs := a.dagFileCodecs()

	for _, root := range a.config.DagPaths {
		logger.Debug("Loading dag files...", "path", root)
		files, err := fsutil.FindFilesByExtension(root, ".hcl", ".yaml", ".yml")
		if err != nil {
			return &ConfigError{Op: "scan", Path: root, Err: err}
		}
		for _, path := range files {
			if err := a.loadDagFile(ctx, path, codecs[filepath.Ext(path)]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *App) loadDagFile(ctx context.Context, path string, codec config.Codec) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Op: "read", Path: path, Err: err}
	}
	specs, err := codec.DecodeDags(ctx, src, path)
	if err != nil {
		return &ConfigError{Op: "parse", Path: path, Err: err}
	}

	origin := "file:" + path
	for _, spec := range specs {
		a.registry.RegisterDag(origin, spec.Key, spec.Doc, func(ctx context.Context) (*dag.Graph, error) {
			return config.Build(ctx, spec, a.registry, dag.WithLogger(ctxlog.FromContext(ctx)))
		})
	}
	ctxlog.FromContext(ctx).Debug("Dag file loaded.", "path", path, "dags", len(specs))
	return nil
}
