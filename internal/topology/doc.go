// Package topology is a small, concurrency-safe directed graph of string
// identities. It knows nothing about blocks or parameters; the dag package
// mirrors its connections into a topology.Graph to answer reachability,
// cycle and ordering questions.
//
// All listings are deterministic: ties are broken by the order in which
// nodes were added, so the same construction sequence always yields the same
// execution order.
package topology
