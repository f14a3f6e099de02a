// Package config defines the format-agnostic persistence model for dags and
// personal run settings, along with the interfaces that format-specific
// codecs implement.
//
// A DagSpec is what gets written to and read from dag files. Describe turns
// a live graph into a spec; Build turns a spec back into a graph by
// constructing every block through a Library. Concrete codecs for HCL and
// YAML live in separate packages.
package config
