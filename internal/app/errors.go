package app

import (
	"errors"
	"fmt"
)

// ErrIncomplete is returned by Run when the dag was stopped before every
// block executed.
var ErrIncomplete = errors.New("run incomplete")

// ConfigError reports a dag file or settings file that could not be read,
// parsed, applied or written.
type ConfigError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
