// Package cli is responsible for parsing command-line arguments into
// application commands and mapping their errors to process exit codes.
package cli
