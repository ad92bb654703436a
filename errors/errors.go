// Package errors holds the small error helpers shared by the runtime packages:
// a panic-to-error converter and a collector for multi-step teardown.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrPanicRecovery marks errors that were produced from a recovered panic.
	ErrPanicRecovery = errors.New("recovered from panic")

	// ErrWrongType is returned when a value does not have the type an operation needs.
	ErrWrongType = errors.New("wrong type")
)

// FromPanic converts a recovered panic value, and optionally its stack, into an
// error wrapping ErrPanicRecovery. A nil panic value yields nil.
func FromPanic(recovered any, stack []byte) error {
	if recovered == nil {
		return nil
	}

	var err error

	if e, ok := recovered.(error); ok {
		err = fmt.Errorf("%w: %w", ErrPanicRecovery, e)
	} else {
		err = fmt.Errorf("%w: %v", ErrPanicRecovery, recovered)
	}

	if len(stack) > 0 {
		return fmt.Errorf("%w\nstack trace:\n%s", err, string(stack))
	}

	return err
}

// Collection is a thread-unsafe utility for accumulating multiple errors.
// Use it when several independent steps must all run and their failures are
// reported together.
type Collection struct {
	errors []error
}

// Add appends an error to the collection. Nil errors are ignored.
func (c *Collection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// HasError returns true if the collection contains at least one error.
func (c *Collection) HasError() bool {
	return len(c.errors) > 0
}

// Len returns the number of collected errors.
func (c *Collection) Len() int {
	return len(c.errors)
}

// GetError returns nil for an empty collection, the single error if there's only
// one, and an errors.Join of everything otherwise.
func (c *Collection) GetError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}
