// Package stopper implements the cooperative cancellation flag shared by
// every block execution of a graph run.
//
// A Stopper has two states, Running and Stopped. Stop and Unstop move between
// them and are idempotent. Long-running blocks poll IsStopped, or wait with
// Sleep, and return ErrStopped when they observe the flag. Nothing is ever
// preempted: a block that never checks can run forever.
//
// All methods are safe for concurrent use. The zero value is a Running
// Stopper, and a nil *Stopper behaves as one that is never stopped.
package stopper

import (
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned by blocks that abort early because the Stopper was set.
var ErrStopped = errors.New("stopped")

// State is the current position of the Stopper state machine.
type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stopper is a shared stop/unstop flag.
type Stopper struct {
	mu      sync.Mutex
	stopped bool
	// done is closed on Stop and replaced on Unstop.
	done chan struct{}
}

// New returns a Stopper in the Running state.
func New() *Stopper {
	return &Stopper{done: make(chan struct{})}
}

// Stop moves the Stopper to Stopped and reports whether the state changed.
// Calling it again has no effect.
func (s *Stopper) Stop() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.stopped = true
	close(s.doneLocked())
	return true
}

// Unstop moves the Stopper back to Running and reports whether the state
// changed. Calling it again has no effect.
func (s *Stopper) Unstop() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		return false
	}
	s.stopped = false
	s.done = make(chan struct{})
	return true
}

// doneLocked returns the current channel, creating it for a zero Stopper.
func (s *Stopper) doneLocked() chan struct{} {
	if s.done == nil {
		s.done = make(chan struct{})
	}
	return s.done
}

// IsStopped reports whether Stop has been called since the last Unstop.
func (s *Stopper) IsStopped() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// State returns the current state.
func (s *Stopper) State() State {
	if s.IsStopped() {
		return Stopped
	}
	return Running
}

// Done returns a channel that is closed once the Stopper is stopped. After
// Unstop a new channel is handed out, so callers should fetch it again for
// every wait.
func (s *Stopper) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doneLocked()
}

// Sleep waits for d or until the Stopper is stopped, whichever comes first.
// It returns true if the full duration elapsed.
func (s *Stopper) Sleep(d time.Duration) bool {
	if s.IsStopped() {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return !s.IsStopped()
	case <-s.Done():
		return false
	}
}
