package actor

import (
	"time"

	"github.com/amp-labs/eventual/logger"
)

// Observer is notified of what the runtime does. Hooks run synchronously on
// the goroutine doing the work and must not block or send messages.
type Observer interface {
	ActorCreated(a *Actor)
	MessageSent(msg *EventualMessage)
	BatchScheduled(a *Actor)
	BatchStarted(a *Actor, size int)
	MessageExecuted(msg *EventualMessage, elapsed time.Duration, err error)
	BatchFinished(a *Actor)
	PromiseSettled(p *Promise)
	ActorFaulted(a *Actor, err error)
}

// NopObserver ignores everything. Embed it to implement only some hooks.
type NopObserver struct{}

func (NopObserver) ActorCreated(*Actor)                                   {}
func (NopObserver) MessageSent(*EventualMessage)                          {}
func (NopObserver) BatchScheduled(*Actor)                                 {}
func (NopObserver) BatchStarted(*Actor, int)                              {}
func (NopObserver) MessageExecuted(*EventualMessage, time.Duration, error) {}
func (NopObserver) BatchFinished(*Actor)                                  {}
func (NopObserver) PromiseSettled(*Promise)                               {}
func (NopObserver) ActorFaulted(*Actor, error)                            {}

type multiObserver []Observer

// Observers fans hooks out to every observer in order.
func Observers(obs ...Observer) Observer { //nolint:ireturn
	switch len(obs) {
	case 0:
		return NopObserver{}
	case 1:
		return obs[0]
	default:
		return multiObserver(obs)
	}
}

func (m multiObserver) ActorCreated(a *Actor) {
	for _, o := range m {
		o.ActorCreated(a)
	}
}

func (m multiObserver) MessageSent(msg *EventualMessage) {
	for _, o := range m {
		o.MessageSent(msg)
	}
}

func (m multiObserver) BatchScheduled(a *Actor) {
	for _, o := range m {
		o.BatchScheduled(a)
	}
}

func (m multiObserver) BatchStarted(a *Actor, size int) {
	for _, o := range m {
		o.BatchStarted(a, size)
	}
}

func (m multiObserver) MessageExecuted(msg *EventualMessage, elapsed time.Duration, err error) {
	for _, o := range m {
		o.MessageExecuted(msg, elapsed, err)
	}
}

func (m multiObserver) BatchFinished(a *Actor) {
	for _, o := range m {
		o.BatchFinished(a)
	}
}

func (m multiObserver) PromiseSettled(p *Promise) {
	for _, o := range m {
		o.PromiseSettled(p)
	}
}

func (m multiObserver) ActorFaulted(a *Actor, err error) {
	for _, o := range m {
		o.ActorFaulted(a, err)
	}
}

// LogObserver writes every hook to the runtime's logger at debug level.
type LogObserver struct{}

func (LogObserver) ActorCreated(a *Actor) {
	logger.Get(a.rt.Context()).Debug("actor created", "actor", a.String())
}

func (LogObserver) MessageSent(msg *EventualMessage) {
	logger.Get(msg.target.rt.Context()).Debug("queued message",
		"message", msg.id,
		"selector", msg.selector,
		"target", msg.target.String(),
		"sender", msg.sender.String())
}

func (LogObserver) BatchScheduled(a *Actor) {
	logger.Get(a.rt.Context()).Debug("scheduled batch", "actor", a.String())
}

func (LogObserver) BatchStarted(a *Actor, size int) {
	logger.Get(a.rt.Context()).Debug("executing batch", "actor", a.String(), "size", size)
}

func (LogObserver) MessageExecuted(msg *EventualMessage, elapsed time.Duration, err error) {
	logger.Get(msg.target.rt.Context()).Debug("executed message",
		"message", msg.id,
		"selector", msg.selector,
		"actor", msg.target.String(),
		"elapsed", elapsed,
		"error", err)
}

func (LogObserver) BatchFinished(a *Actor) {
	logger.Get(a.rt.Context()).Debug("no more messages", "actor", a.String())
}

func (LogObserver) PromiseSettled(p *Promise) {
	state, value := p.Result()

	logger.Get(p.owner.rt.Context()).Debug("promise settled",
		"promise", p.id,
		"owner", p.owner.String(),
		"state", state.String(),
		"value", value)
}

func (LogObserver) ActorFaulted(a *Actor, err error) {
	logger.Get(a.rt.Context()).Debug("actor faulted", "actor", a.String(), "error", err)
}
