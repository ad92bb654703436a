package actor

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amp-labs/eventual/logger"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func testConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Name = "test"

	return cfg
}

// startRuntime starts a runtime that logs to the test and stops it on cleanup.
func startRuntime(t *testing.T, invoker Invoker, workers int, opts ...Option) *Runtime {
	t.Helper()

	rt := New(invoker, append([]Option{WithConfig(testConfig(t))}, opts...)...)

	ctx := logger.WithLogger(context.Background(), slogt.New(t))
	require.NoError(t, rt.Start(ctx, workers))

	t.Cleanup(func() {
		_ = rt.Shutdown(testTimeout)
	})

	return rt
}

func await(t *testing.T, p *Promise) (any, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	return p.Await(ctx)
}

func mustAwait(t *testing.T, p *Promise) any {
	t.Helper()

	v, err := await(t, p)
	require.NoError(t, err)

	return v
}

// recorder collects strings from concurrently running messages.
type recorder struct {
	mu    sync.Mutex
	items []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.items))
	copy(out, r.items)

	return out
}

// syncBuffer is a log destination shared by worker goroutines and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// countingObserver counts hook calls per actor.
type countingObserver struct {
	NopObserver

	mu        sync.Mutex
	scheduled map[*Actor]int
	batches   map[*Actor]int
	executed  int
	settled   int
	faults    int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		scheduled: make(map[*Actor]int),
		batches:   make(map[*Actor]int),
	}
}

func (o *countingObserver) BatchScheduled(a *Actor) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.scheduled[a]++
}

func (o *countingObserver) BatchStarted(a *Actor, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.batches[a]++
}

func (o *countingObserver) MessageExecuted(*EventualMessage, time.Duration, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.executed++
}

func (o *countingObserver) PromiseSettled(*Promise) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.settled++
}

func (o *countingObserver) ActorFaulted(*Actor, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.faults++
}

func (o *countingObserver) scheduledFor(a *Actor) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.scheduled[a]
}

// block is the callback type used with WhenResolved and OnError in tests.
type block func(v any) (any, error)

func handleBlocks() Registration {
	return Handle(CallbackSelector, func(_ context.Context, _ *Actor, b block, args []any) (any, error) {
		return b(args[0])
	})
}
