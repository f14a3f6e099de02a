package dag

import (
	"time"

	"github.com/vk/blockflow/internal/nodestore"
)

// EventType identifies what happened.
type EventType int

const (
	EventRunStarted EventType = iota
	EventBlockStarted
	EventBlockFinished
	EventRunFinished
	EventStopped
	EventUnstopped
)

func (t EventType) String() string {
	switch t {
	case EventRunStarted:
		return "run_started"
	case EventBlockStarted:
		return "block_started"
	case EventBlockFinished:
		return "block_finished"
	case EventRunFinished:
		return "run_finished"
	case EventStopped:
		return "stopped"
	case EventUnstopped:
		return "unstopped"
	default:
		return "unknown"
	}
}

// Event is delivered to observers synchronously from the coordinator.
type Event struct {
	Type  EventType
	Dag   string
	RunID string
	// Block and Status are set for block events.
	Block  string
	Status nodestore.Status
	// RunStatus is set for EventRunFinished.
	RunStatus RunStatus
	Err       error
	Duration  time.Duration
	Time      time.Time
}

// Observer receives graph events. Implementations must not block and must
// not call back into the graph.
type Observer interface {
	HandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) HandleEvent(e Event) { f(e) }

// Observe registers o for all future events.
func (g *Graph) Observe(o Observer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observers = append(g.observers, o)
}

func (g *Graph) emit(e Event) {
	e.Dag = g.key
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	g.mu.Lock()
	observers := make([]Observer, len(g.observers))
	copy(observers, g.observers)
	g.mu.Unlock()
	for _, o := range observers {
		o.HandleEvent(e)
	}
}
