// Package dag wires blocks into an acyclic graph and runs them.
//
// # Construction
//
// Blocks are added with AddBlock or implicitly by Connect. A Connection maps
// one or more outputs of a source block onto inputs of a target block. Connect
// validates every pair before mutating anything: both parameters must exist,
// their types must be compatible, the target input must not already be fed,
// and the new edge must not close a cycle. On failure the graph is left
// exactly as it was. Inputs that are not fed by a connection can be bound to
// constants with Bind; bindings are part of the structure and survive
// serialization.
//
// # Execution
//
// A run starts from a stimulus: Run (every block), Trigger (treat outputs of
// one block as freshly written), SetInput (write an unconnected input), or a
// plain Set on a connected output of a block in the graph. The coordinator
// walks the cached topological order once. A reachable block executes when
// each of its connected inputs was supplied during the run, or was supplied
// in an earlier run by a source that this run does not reach. Outputs written
// during Execute are propagated to the connected inputs after Execute returns
// nil. Every block executes at most once per run.
//
// # Cancellation
//
// The graph owns a Stopper that is handed to every Execute call. The
// coordinator checks it before starting each block; once stopped, nothing
// else starts and the run ends Incomplete, which is not an error. A block
// that notices the stop returns stopper.ErrStopped and its writes are
// discarded. Unstop lets the next run proceed as a fresh one.
//
// A failing block halts the whole run with an ExecutionError naming it.
// Structural changes and overlapping runs are rejected with ErrRunInProgress.
package dag
