// Package app contains the core application logic. It owns the registry,
// the dag files loaded from disk and the settings file, and implements the
// listing, dump, run and settings-update operations independently of any
// specific entrypoint like a CLI.
package app
