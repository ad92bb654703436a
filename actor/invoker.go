package actor

import (
	"context"
	"errors"
	"fmt"
)

// Invoker is the interpreter boundary: given a selector and an argument vector
// whose first element is the receiver, it looks up and runs the behavior.
//
// Invoke runs on a worker goroutine while self is the only actor allowed to
// touch the receiver. A returned error is a domain exception and settles the
// message's promise as erroneous; a panic is treated as an interpreter fault,
// logged, and leaves the promise untouched.
type Invoker interface {
	Invoke(ctx context.Context, self *Actor, selector string, args []any) (any, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, self *Actor, selector string, args []any) (any, error)

func (f InvokerFunc) Invoke(ctx context.Context, self *Actor, selector string, args []any) (any, error) {
	return f(ctx, self, selector, args)
}

// Exception is an application-level failure raised by the interpreter. Its
// Value is what an erroneous promise carries.
type Exception struct {
	Value any
}

// Raise wraps v as a domain exception.
func Raise(v any) error {
	return &Exception{Value: v}
}

func (e *Exception) Error() string {
	if err, ok := e.Value.(error); ok {
		return "exception: " + err.Error()
	}

	return fmt.Sprintf("exception: %v", e.Value)
}

// Unwrap exposes error-typed exception values to errors.Is and errors.As.
func (e *Exception) Unwrap() error {
	err, _ := e.Value.(error)

	return err
}

// exceptionValue returns what an erroneous promise stores for err: the value
// of an *Exception, or the error itself for anything else.
func exceptionValue(err error) any {
	var exc *Exception
	if errors.As(err, &exc) {
		return exc.Value
	}

	return err
}
