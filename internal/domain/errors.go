package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound marks an upstream lookup miss or failure. Callers skip the
// affected channel and continue the batch.
var ErrNotFound = errors.New("not found")

// ParseError is a fatal type-cast failure during the transform stage.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: invalid value %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
