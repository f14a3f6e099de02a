// Package nodestore defines the interface for recording the per-run
// execution state of blocks.
//
// A graph keeps its structure (blocks, connections, cached order) and the
// mutable state of one run apart. Every run gets a fresh store: blocks start
// Pending and move through the states below as the coordinator drives them.
//
//	Pending → Running → Completed
//	                  → Failed
//	                  → Stopped        (returned early after a stop)
//	                  → AwaitingInput  (interactive block, outputs come from outside)
//	Pending → Skipped                  (not started: stop, failure or context cancellation)
//
// A block that was never ready during the run stays Pending.
package nodestore

import (
	"context"

	"github.com/vk/blockflow/internal/nodeid"
)

// Status is the execution state of a block within one run.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusStopped
	StatusSkipped
	StatusAwaitingInput
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusStopped:
		return "stopped"
	case StatusSkipped:
		return "skipped"
	case StatusAwaitingInput:
		return "awaiting_input"
	default:
		return "unknown"
	}
}

// Store manages the mutable execution state of blocks during a run.
//
// Implementations must be safe for concurrent use: observers and metrics may
// read while the coordinator writes.
type Store interface {
	// SetStatus records a status transition.
	SetStatus(ctx context.Context, id nodeid.Address, status Status) error

	// GetStatus returns StatusPending for blocks nothing was recorded for.
	GetStatus(ctx context.Context, id nodeid.Address) (Status, error)

	// SetError records why a block failed.
	SetError(ctx context.Context, id nodeid.Address, blockErr error) error

	// GetError returns nil if no error was recorded.
	GetError(ctx context.Context, id nodeid.Address) (error, error)

	// Snapshot copies every recorded status, keyed by block identity.
	Snapshot(ctx context.Context) (map[string]Status, error)
}
