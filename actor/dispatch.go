package actor

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Method is a behavior bound to a receiver type and selector. args[0] is the receiver.
type Method func(ctx context.Context, self *Actor, args []any) (any, error)

// Registration adds methods to a Dispatcher. Create these with Handle and Fallback.
type Registration func(d *Dispatcher)

type dispatchKey struct {
	typ      reflect.Type
	selector string
}

// Dispatcher is an Invoker that looks behavior up by the receiver's dynamic
// type and the selector. It stands in for a language's class-based lookup in
// hosts and tests that don't bring their own interpreter.
type Dispatcher struct {
	mu       sync.RWMutex
	methods  map[dispatchKey]Method
	fallback Method
}

// NewDispatcher creates a Dispatcher with the given registrations.
//
// Example:
//
//	d := actor.NewDispatcher(
//	    actor.Handle("increment", func(ctx context.Context, self *actor.Actor, c *Counter, args []any) (any, error) {
//	        c.n++
//	        return c.n, nil
//	    }),
//	)
func NewDispatcher(regs ...Registration) *Dispatcher {
	d := &Dispatcher{
		methods: make(map[dispatchKey]Method),
	}

	for _, reg := range regs {
		reg(d)
	}

	return d
}

// Register adds or replaces the behavior for receivers of type typ.
func (d *Dispatcher) Register(typ reflect.Type, selector string, m Method) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.methods[dispatchKey{typ: typ, selector: selector}] = m
}

// Handle registers fn for receivers whose dynamic type is exactly T.
func Handle[T any](selector string, fn func(ctx context.Context, self *Actor, rcvr T, args []any) (any, error)) Registration {
	return func(d *Dispatcher) {
		d.Register(reflect.TypeFor[T](), selector, func(ctx context.Context, self *Actor, args []any) (any, error) {
			rcvr, ok := args[0].(T)
			if !ok {
				return nil, Raise(fmt.Errorf("%w: receiver %T is not %v", ErrDoesNotUnderstand, args[0], reflect.TypeFor[T]()))
			}

			return fn(ctx, self, rcvr, args[1:])
		})
	}
}

// Fallback registers the behavior used when nothing matches. Without one, the
// Dispatcher raises ErrDoesNotUnderstand.
func Fallback(m Method) Registration {
	return func(d *Dispatcher) {
		d.mu.Lock()
		defer d.mu.Unlock()

		d.fallback = m
	}
}

func (d *Dispatcher) Invoke(ctx context.Context, self *Actor, selector string, args []any) (any, error) {
	if len(args) == 0 {
		return nil, Raise(ErrNoReceiver)
	}

	d.mu.RLock()
	m, ok := d.methods[dispatchKey{typ: reflect.TypeOf(args[0]), selector: selector}]
	fallback := d.fallback
	d.mu.RUnlock()

	switch {
	case ok:
		return m(ctx, self, args)
	case fallback != nil:
		return fallback(ctx, self, args)
	default:
		return nil, Raise(fmt.Errorf("%w: %T does not understand %q", ErrDoesNotUnderstand, args[0], selector))
	}
}

var _ Invoker = (*Dispatcher)(nil)
