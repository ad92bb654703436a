package actor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	amperrors "github.com/amp-labs/eventual/errors"
	"github.com/amp-labs/eventual/logger"
)

// Actor is a unit of sequential execution: it owns a set of objects and runs
// the messages sent to it one at a time, in the order they arrived.
//
// An actor has no goroutine of its own. While its mailbox is non-empty exactly
// one batch task runs on the runtime's worker pool; when the mailbox drains the
// actor goes idle until the next send schedules it again.
type Actor struct {
	id   uint64
	rt   *Runtime
	main bool

	mu        sync.Mutex
	mailbox   *mailbox
	executing bool
	fault     error
}

func newActor(rt *Runtime, main bool) *Actor {
	a := &Actor{
		id:      rt.ids.actors.Inc(),
		rt:      rt,
		main:    main,
		mailbox: newMailbox(0, rt.cfg.TrackTimestamps),
		// The main actor starts out executing on the host goroutine.
		executing: main,
	}

	actorsCreated.WithLabelValues(rt.name).Inc()

	return a
}

// ID returns the runtime-unique actor id.
func (a *Actor) ID() uint64 { return a.id }

// Runtime returns the runtime the actor belongs to.
func (a *Actor) Runtime() *Runtime { return a.rt }

// IsMain reports whether this is the runtime's main actor.
func (a *Actor) IsMain() bool { return a.main }

// IsExecuting reports whether a batch for this actor is scheduled or running.
func (a *Actor) IsExecuting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.executing
}

// Pending returns the number of messages waiting for the next batch.
func (a *Actor) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.mailbox.len()
}

func (a *Actor) String() string {
	if a.main {
		return "Actor[main]"
	}

	return fmt.Sprintf("Actor[%d]", a.id)
}

// send appends msg and schedules a batch if the actor was idle.
func (a *Actor) send(msg *EventualMessage) error {
	var sentAt time.Time
	if a.rt.cfg.TrackTimestamps {
		sentAt = time.Now()
	}

	a.mu.Lock()
	if a.fault != nil {
		fault := a.fault
		a.mu.Unlock()

		return fmt.Errorf("%w: %s: %w", ErrActorFaulted, a, fault)
	}

	a.mailbox.append(msg, sentAt)
	schedule := !a.executing
	a.executing = true
	a.mu.Unlock()

	a.rt.observer.MessageSent(msg)

	if !schedule {
		return nil
	}

	executingActors.WithLabelValues(a.rt.name).Inc()

	return a.schedule()
}

// schedule hands a batch task to the pool. If the pool refuses it, the actor
// goes idle again and every pending message fails with the rejection.
func (a *Actor) schedule() error {
	a.rt.observer.BatchScheduled(a)

	err := a.rt.submit(a.executeBatches)
	if err == nil {
		return nil
	}

	err = fmt.Errorf("%w: %s: %w", ErrRejected, a, err)

	submissionsRejected.WithLabelValues(a.rt.name).Inc()
	a.abandon(err)

	return err
}

// abandon clears the mailbox after a rejected submission and errs the
// promises of the dropped messages.
func (a *Actor) abandon(reason error) {
	a.mu.Lock()
	dropped := a.mailbox
	a.mailbox = newMailbox(0, a.rt.cfg.TrackTimestamps)
	a.executing = false
	a.mu.Unlock()

	executingActors.WithLabelValues(a.rt.name).Dec()

	a.fail(dropped.messages(), reason)
}

// fail errs the promises of messages that will never run. Promises that
// already settled keep their outcome.
func (a *Actor) fail(msgs []*EventualMessage, reason error) {
	for _, msg := range msgs {
		if msg.resolver == nil {
			continue
		}

		if err := msg.resolver.promise.settle(Erroneous, reason); err != nil {
			logger.Get(a.rt.Context()).Debug("dropped message already settled",
				"message", msg.id,
				"error", err)
		}
	}
}

// takeBatch detaches the current mailbox. It returns nil and marks the actor
// idle when there is nothing left to do.
func (a *Actor) takeBatch() *mailbox {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.mailbox.isEmpty() {
		a.executing = false

		return nil
	}

	batch := a.mailbox
	a.mailbox = newMailbox(batch.len(), a.rt.cfg.TrackTimestamps)

	return batch
}

// executeBatches is the batch task. It keeps taking batches until the mailbox
// is empty, or until MaxBatchesPerTurn is reached, in which case the actor is
// rescheduled behind the other work in the pool.
func (a *Actor) executeBatches() {
	ctx := logger.WithActor(a.rt.Context(), a.id)

	var (
		batch *mailbox
		done  int
	)

	defer func() {
		if r := recover(); r != nil {
			var unfinished []*EventualMessage
			if batch != nil {
				unfinished = batch.messages()[done:]
			}

			a.faulted(ctx, amperrors.FromPanic(r, debug.Stack()), unfinished)
		}
	}()

	limit := a.rt.cfg.MaxBatchesPerTurn

	for turns := 1; ; turns++ {
		batch, done = a.takeBatch(), 0
		if batch == nil {
			a.idle()

			return
		}

		a.processBatch(ctx, batch, &done)

		if limit > 0 && turns >= limit {
			a.yield(ctx)

			return
		}
	}
}

// processBatch runs every message of batch in order. done counts the messages
// that ran to completion.
func (a *Actor) processBatch(ctx context.Context, batch *mailbox, done *int) {
	size := batch.len()

	batchesProcessed.WithLabelValues(a.rt.name).Inc()
	batchSize.WithLabelValues(a.rt.name).Observe(float64(size))
	a.rt.observer.BatchStarted(a, size)

	batch.each(func(msg *EventualMessage, sentAt time.Time) {
		msg.sentAt = sentAt
		msg.execute(ctx)
		*done++
	})
}

func (a *Actor) idle() {
	executingActors.WithLabelValues(a.rt.name).Dec()
	a.rt.observer.BatchFinished(a)
}

// yield gives the worker back to the pool and queues a new batch task for the
// remaining messages.
func (a *Actor) yield(ctx context.Context) {
	a.mu.Lock()
	if a.mailbox.isEmpty() {
		a.executing = false
		a.mu.Unlock()
		a.idle()

		return
	}
	a.mu.Unlock()

	if err := a.schedule(); err != nil {
		logger.Get(ctx).Warn("actor could not be rescheduled", "error", err)
	}
}

// release ends the host goroutine's turn on the main actor.
func (a *Actor) release(ctx context.Context) {
	a.mu.Lock()
	if a.mailbox.isEmpty() {
		a.executing = false
		a.mu.Unlock()

		return
	}
	a.mu.Unlock()

	executingActors.WithLabelValues(a.rt.name).Inc()

	if err := a.schedule(); err != nil {
		logger.Get(ctx).Warn("main actor could not be scheduled", "error", err)
	}
}

// faulted handles a failure of the batch loop itself. The actor keeps its
// executing flag so nothing is scheduled for it again, and every message that
// did not run to completion fails with the fault.
func (a *Actor) faulted(ctx context.Context, err error, unfinished []*EventualMessage) {
	reason := fmt.Errorf("%w: %s: %w", ErrActorFaulted, a, err)

	a.mu.Lock()
	a.fault = err
	pending := a.mailbox
	a.mailbox = newMailbox(0, a.rt.cfg.TrackTimestamps)
	a.mu.Unlock()

	executingActors.WithLabelValues(a.rt.name).Dec()
	schedulerFaults.WithLabelValues(a.rt.name).Inc()

	logger.Get(ctx).Error("processing of eventual messages failed for actor",
		"name", a.String(),
		"error", err)

	a.rt.observer.ActorFaulted(a, err)

	a.fail(append(unfinished, pending.messages()...), reason)
}
