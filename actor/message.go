package actor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	amperrors "github.com/amp-labs/eventual/errors"
	"github.com/amp-labs/eventual/logger"
)

const (
	outcomeResolved  = "resolved"
	outcomeErroneous = "erroneous"
	outcomeOneWay    = "one_way"
	outcomeFailed    = "failed"
)

// EventualMessage is one asynchronous invocation: a selector and argument
// vector (args[0] is the receiver) to be executed by target, plus the resolver
// of the promise that observes the result, if anyone observes it.
//
// Messages are immutable once sent. They are executed exactly once, in the
// order they were appended to the target's mailbox.
type EventualMessage struct {
	id       uint64
	target   *Actor
	selector string
	args     []any
	resolver *Resolver
	sender   *Actor

	// Written by the executing worker before the message runs.
	sentAt    time.Time
	startedAt time.Time
}

// ID returns the runtime-unique message id.
func (m *EventualMessage) ID() uint64 { return m.id }

// Target returns the actor executing the message.
func (m *EventualMessage) Target() *Actor { return m.target }

// Sender returns the actor that sent the message.
func (m *EventualMessage) Sender() *Actor { return m.sender }

// Selector returns the message selector.
func (m *EventualMessage) Selector() string { return m.selector }

// Args returns a copy of the argument vector.
func (m *EventualMessage) Args() []any {
	out := make([]any, len(m.args))
	copy(out, m.args)

	return out
}

// Promise returns the promise resolved by this message, or nil for one-way messages.
func (m *EventualMessage) Promise() *Promise {
	if m.resolver == nil {
		return nil
	}

	return m.resolver.promise
}

// SentAt returns when the message was appended to the mailbox. It is zero
// unless the runtime tracks timestamps.
func (m *EventualMessage) SentAt() time.Time { return m.sentAt }

// StartedAt returns when execution began; zero before that.
func (m *EventualMessage) StartedAt() time.Time { return m.startedAt }

func (m *EventualMessage) String() string {
	return fmt.Sprintf("EMsg(%s, %v, %s, sender: %s)", m.selector, m.args, m.target, m.sender)
}

// execute runs the message on the current worker and settles its promise.
// Nothing escapes: exceptions become erroneous promises, interpreter panics
// are logged and the batch moves on.
func (m *EventualMessage) execute(ctx context.Context) {
	rt := m.target.rt

	m.startedAt = time.Now()
	if !m.sentAt.IsZero() {
		queueTime.WithLabelValues(rt.name).Observe(m.startedAt.Sub(m.sentAt).Seconds())
	}

	ctx = logger.With(ctx, "message", m.id, "selector", m.selector)

	result, err, panicked := m.invoke(ctx)

	elapsed := time.Since(m.startedAt)
	processingTime.WithLabelValues(rt.name).Observe(elapsed.Seconds())

	// Observers see the message before anyone waiting on its promise does.
	rt.observer.MessageExecuted(m, elapsed, err)

	if panicked {
		messagePanics.WithLabelValues(rt.name).Inc()
		messagesProcessed.WithLabelValues(rt.name, outcomeFailed).Inc()

		logger.Get(ctx).Error("processing of eventual message failed",
			"target", m.target.String(),
			"error", err)

		return
	}

	if m.resolver == nil {
		messagesProcessed.WithLabelValues(rt.name, outcomeOneWay).Inc()

		if err != nil {
			logger.Get(ctx).Debug("one-way message raised an exception", "error", err)
		}

		return
	}

	var settleErr error

	if err != nil {
		messagesProcessed.WithLabelValues(rt.name, outcomeErroneous).Inc()
		settleErr = m.resolver.Error(m.target, exceptionValue(err))
	} else {
		messagesProcessed.WithLabelValues(rt.name, outcomeResolved).Inc()
		settleErr = m.resolver.Resolve(m.target, result)
	}

	if settleErr != nil {
		logger.Get(ctx).Error("message result could not be delivered",
			"promise", m.resolver.promise.id,
			"error", settleErr)
	}
}

func (m *EventualMessage) invoke(ctx context.Context) (result any, err error, panicked bool) { //nolint:revive
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = amperrors.FromPanic(r, debug.Stack())
			panicked = true
		}
	}()

	result, err = m.target.rt.invoker.Invoke(ctx, m.target, m.selector, m.args)

	return result, err, false
}
