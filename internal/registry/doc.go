// Package registry is the process-wide catalog of block and dag
// constructors.
//
// Plugin packages implement Module and add their entries in Register. The
// application loads modules in a fixed discovery order at startup, after
// which the registry is only read. Keys are dotted and namespaced, e.g.
// `timer.progress`. Registering a key twice is allowed: lookups resolve to
// the latest registration and listings flag the later ones as duplicates so
// the runner can warn about them.
package registry
