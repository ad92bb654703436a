package actor

import "time"

const minOverflowCapacity = 4

// mailbox holds the messages sent to an actor that have not started executing.
// The first message is stored inline because most batches contain exactly one;
// the overflow slice is only allocated once a second message arrives.
//
// A mailbox is never drained in place. The actor swaps it for a fresh one under
// its lock and executes the detached one without holding any lock.
type mailbox struct {
	first     *EventualMessage
	firstSent time.Time

	rest     []*EventualMessage
	restSent []time.Time

	sizeHint   int
	timestamps bool
}

func newMailbox(sizeHint int, timestamps bool) *mailbox {
	return &mailbox{
		sizeHint:   sizeHint,
		timestamps: timestamps,
	}
}

// append adds msg at the tail. sentAt is only kept when timestamps are tracked.
func (m *mailbox) append(msg *EventualMessage, sentAt time.Time) {
	if m.first == nil {
		m.first = msg
		if m.timestamps {
			m.firstSent = sentAt
		}

		return
	}

	if m.rest == nil {
		m.rest = make([]*EventualMessage, 0, max(m.sizeHint-1, minOverflowCapacity))
		if m.timestamps {
			m.restSent = make([]time.Time, 0, cap(m.rest))
		}
	}

	m.rest = append(m.rest, msg)
	if m.timestamps {
		m.restSent = append(m.restSent, sentAt)
	}
}

func (m *mailbox) isEmpty() bool {
	return m.first == nil
}

func (m *mailbox) len() int {
	if m.first == nil {
		return 0
	}

	return 1 + len(m.rest)
}

// each visits the messages in append order. sentAt is zero when timestamps
// are not tracked.
func (m *mailbox) each(f func(msg *EventualMessage, sentAt time.Time)) {
	if m.first == nil {
		return
	}

	f(m.first, m.firstSent)

	for i, msg := range m.rest {
		var sentAt time.Time
		if m.timestamps {
			sentAt = m.restSent[i]
		}

		f(msg, sentAt)
	}
}

// messages returns the contents in append order.
func (m *mailbox) messages() []*EventualMessage {
	out := make([]*EventualMessage, 0, m.len())

	m.each(func(msg *EventualMessage, _ time.Time) {
		out = append(out, msg)
	})

	return out
}
