package dag

import (
	"errors"
	"fmt"
)

// Kinds of ConnectionError. Test with errors.Is.
var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrDuplicateTarget  = errors.New("duplicate target")
	ErrCycleDetected    = errors.New("cycle detected")
)

var (
	// ErrNoMappings is returned by Connect when no parameter pairs are given.
	ErrNoMappings = errors.New("connection needs at least one mapping")
	// ErrDuplicateBlock is returned when a different block reuses an identity.
	ErrDuplicateBlock = errors.New("duplicate block identity")
	// ErrUnknownBlock is returned for identities that are not in the graph.
	ErrUnknownBlock = errors.New("unknown block")
	// ErrConnectedInput is returned when writing or binding an input that
	// is fed by a connection.
	ErrConnectedInput = errors.New("input is fed by a connection")
	// ErrRunInProgress is returned for structural changes, overlapping runs
	// and foreign output writes while a run is active.
	ErrRunInProgress = errors.New("run in progress")
)

// ConnectionError describes why Connect refused a connection.
type ConnectionError struct {
	Kind   error
	Source string
	Target string
	// Param names the offending parameter, if any.
	Param string
	Msg   string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s -> %s: %v: %s", e.Source, e.Target, e.Kind, e.Msg)
}

func (e *ConnectionError) Unwrap() error {
	return e.Kind
}

// ExecutionError reports a block whose Execute failed.
type ExecutionError struct {
	Dag   string
	Block string
	Err   error
}

func (e *ExecutionError) Error() string {
	if e.Dag == "" {
		return fmt.Sprintf("block %q failed: %v", e.Block, e.Err)
	}
	return fmt.Sprintf("dag %q: block %q failed: %v", e.Dag, e.Block, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
