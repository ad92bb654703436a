package actor

import "errors"

var (
	// ErrRejected is returned by sends whose batch task could not be handed to
	// the worker pool, normally because the runtime is shutting down. Callers
	// should stop producing work when they see it.
	ErrRejected = errors.New("actor: batch submission rejected")

	// ErrNotStarted is returned when sending before Runtime.Start.
	ErrNotStarted = errors.New("actor: runtime not started")

	// ErrAlreadyStarted is returned by a second call to Runtime.Start.
	ErrAlreadyStarted = errors.New("actor: runtime already started")

	// ErrAlreadySettled is returned when a promise that is already resolved,
	// errored, or chained to another promise is settled again. The first
	// outcome is kept.
	ErrAlreadySettled = errors.New("actor: promise already settled")

	// ErrPromiseCycle is returned when a promise would be resolved with itself,
	// directly or through a chain of promises.
	ErrPromiseCycle = errors.New("actor: promise chain forms a cycle")

	// ErrActorFaulted is returned when sending to an actor whose batch loop
	// failed outside of message execution. The promises of messages it had not
	// finished are settled with it as well.
	ErrActorFaulted = errors.New("actor: actor faulted")

	// ErrMainAlreadyRun is returned by a second call to Runtime.Run.
	ErrMainAlreadyRun = errors.New("actor: main actor already started")

	// ErrNoReceiver is returned when an eventual send has an empty argument vector.
	ErrNoReceiver = errors.New("actor: eventual send without receiver")

	// ErrNilActor is returned when a send or callback names no current actor.
	ErrNilActor = errors.New("actor: no current actor")

	// ErrForeignActor is returned when an actor from another runtime is used.
	ErrForeignActor = errors.New("actor: actor belongs to a different runtime")

	// ErrDoesNotUnderstand is the exception value raised by Dispatcher when no
	// behavior is registered for a receiver type and selector.
	ErrDoesNotUnderstand = errors.New("actor: message not understood")
)
