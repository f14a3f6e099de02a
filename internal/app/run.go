package app

import (
	"context"
	"fmt"

	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/dag"
	"github.com/vk/blockflow/internal/nodestore"
	"github.com/vk/blockflow/internal/tracing"
)

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Run constructs the dag registered under key, applies the settings file to
// it and runs it once. Cancelling ctx stops the graph: the block in flight
// sees its stopper and the run ends incomplete. Blocks waiting for user
// input are confirmed as they are, since there is nobody to ask.
func (a *App) Run(ctx context.Context, key string) (*dag.RunResult, error) {
	logger := a.logger.With("dag", key)
	// The graph is stopped through its stopper; the run itself must not be
	// torn down by the cancellation.
	runCtx := ctxlog.WithLogger(context.WithoutCancel(ctx), logger)
	logger.Debug("App.Run method started.")

	if a.config.Trace {
		shutdown, err := tracing.Setup(a.outW)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := shutdown(runCtx); err != nil {
				logger.Warn("Tracer shutdown failed.", "error", err)
			}
		}()
	}

	settings, err := a.hclCodec.LoadSettings(runCtx, a.config.SettingsPath)
	if err != nil {
		return nil, &ConfigError{Op: "load settings", Path: a.config.SettingsPath, Err: err}
	}
	g, err := a.registry.NewDag(runCtx, key)
	if err != nil {
		return nil, err
	}
	g.SetLogger(logger)
	if err := settings.Apply(runCtx, g); err != nil {
		return nil, &ConfigError{Op: "apply settings", Path: a.config.SettingsPath, Err: err}
	}
	g.Observe(a.metrics)

	if a.config.HealthcheckPort > 0 {
		a.healthCheckServer()
		defer a.closeHealthCheckServer()
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			logger.Info("🛑 Stop requested.")
			g.Stop()
		case <-done:
		}
	}()

	logger.Info("▶️ Running dag.", "blocks", len(g.Blocks()))
	res, err := g.Run(runCtx)
	if err == nil && res.Status == dag.RunCompleted {
		res, err = a.confirmUserInput(runCtx, g, res)
	}
	if res != nil {
		logger.Info("🏁 Dag finished.", "status", res.Status, "executed", len(res.Executed), "duration", res.Duration())
	}
	if err != nil {
		return res, fmt.Errorf("run failed: %w", err)
	}
	if res.Status == dag.RunIncomplete {
		return res, ErrIncomplete
	}
	return res, nil
}

// confirmUserInput triggers every block the run left awaiting input, in
// graph order. The returned result covers the whole sequence of runs.
func (a *App) confirmUserInput(ctx context.Context, g *dag.Graph, res *dag.RunResult) (*dag.RunResult, error) {
	order, err := g.Order()
	if err != nil {
		return res, err
	}
	merged := *res
	merged.Blocks = make(map[string]nodestore.Status, len(res.Blocks))
	for id, s := range res.Blocks {
		merged.Blocks[id] = s
	}

	for _, id := range order {
		if merged.Blocks[id] != nodestore.StatusAwaitingInput {
			continue
		}
		ctxlog.FromContext(ctx).Info("⏸️ Confirming user input as is.", "block", id)
		next, err := g.Trigger(ctx, id)
		if next != nil {
			merged.Executed = append(merged.Executed, next.Executed...)
			for bid, s := range next.Blocks {
				merged.Blocks[bid] = s
			}
			merged.Blocks[id] = nodestore.StatusCompleted
			merged.Status = next.Status
			merged.Failed = next.Failed
			merged.Err = next.Err
			merged.Finished = next.Finished
		}
		if err != nil || merged.Status != dag.RunCompleted {
			return &merged, err
		}
	}
	return &merged, nil
}
