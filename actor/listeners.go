package actor

import "github.com/amp-labs/eventual/logger"

// CallbackSelector is the selector of messages that run promise callbacks.
// The callback block is the receiver and the settled value the only argument.
const CallbackSelector = "value:"

// pipelinedSend is an eventual send whose receiver is the future value of a
// promise. Once the promise resolves, the message goes to whoever owns that
// value; if it fails, the failure flows into the send's own promise.
type pipelinedSend struct {
	selector string
	args     []any
	resolver *Resolver
	sender   *Actor
}

func (s *pipelinedSend) onSettled(p *Promise, state State, value any) {
	if state == Erroneous {
		if s.resolver != nil {
			s.resolver.promise.cascadeFrom(p, state, value)
		}

		return
	}

	target, rcvr := p.owner, value
	if far, ok := value.(*FarReference); ok && far.owner != nil {
		target, rcvr = far.owner, far.value
	}

	args := make([]any, len(s.args))
	args[0] = rcvr

	for i := 1; i < len(s.args); i++ {
		args[i] = WrapForUse(s.args[i], s.sender, target)
	}

	rt := s.sender.rt
	msg := rt.newMessage(target, s.selector, args, s.resolver, s.sender)

	if err := target.send(msg); err != nil {
		logger.Get(rt.Context()).Warn("pipelined send was rejected",
			"selector", s.selector,
			"target", target.String(),
			"error", err)
	}
}

// callback runs a block on its owner once a promise settles. Outcomes that
// have no block pass straight through to the callback's own promise.
type callback struct {
	owner    *Actor
	resolver *Resolver

	onResolved    any
	hasOnResolved bool
	onError       any
	hasOnError    bool
}

func (c *callback) onSettled(p *Promise, state State, value any) {
	var block any

	switch {
	case state == Resolved && c.hasOnResolved:
		block = c.onResolved
	case state == Erroneous && c.hasOnError:
		block = c.onError
	default:
		c.resolver.promise.cascadeFrom(p, state, value)

		return
	}

	rt := c.owner.rt
	args := []any{block, WrapForUse(value, p.owner, c.owner)}
	msg := rt.newMessage(c.owner, CallbackSelector, args, c.resolver, c.owner)

	if err := c.owner.send(msg); err != nil {
		logger.Get(rt.Context()).Warn("promise callback was rejected",
			"promise", p.id,
			"owner", c.owner.String(),
			"error", err)
	}
}

// cascadeFrom settles p with the outcome of from, which it follows without
// being chained to it.
func (p *Promise) cascadeFrom(from *Promise, state State, value any) {
	if err := p.settle(state, WrapForUse(value, from.owner, p.owner)); err != nil {
		logger.Get(p.owner.rt.Context()).Debug("outcome not forwarded", "promise", p.id, "error", err)
	}
}
