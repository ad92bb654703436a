package actor

import "go.uber.org/atomic"

// ids hands out runtime-unique identifiers. Ids start at 1 so the zero value
// never names anything.
type ids struct {
	actors   *atomic.Uint64
	messages *atomic.Uint64
	promises *atomic.Uint64
}

func newIDs() ids {
	return ids{
		actors:   atomic.NewUint64(0),
		messages: atomic.NewUint64(0),
		promises: atomic.NewUint64(0),
	}
}
