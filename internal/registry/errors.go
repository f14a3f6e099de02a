package registry

import "fmt"

// NotFoundError is returned when a key has no registration.
type NotFoundError struct {
	Kind Kind
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Key)
}

// ConstructionError is returned when a registered constructor fails.
type ConstructionError struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct %s '%s': %v", e.Kind, e.Key, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
