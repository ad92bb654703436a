// Package shutdown runs cleanup hooks when the process is asked to stop.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/amp-labs/eventual/logger"
)

var (
	mut     sync.Mutex     //nolint:gochecknoglobals
	hooks   []func()       //nolint:gochecknoglobals
	channel chan os.Signal //nolint:gochecknoglobals
)

// BeforeShutdown registers a hook to run when shutdown begins, before the
// context returned by SetupHandler is cancelled. Hooks run in reverse order of
// registration, so something registered later (an actor runtime) is stopped
// before what it depends on (the telemetry exporters it reports to).
func BeforeShutdown(h func()) {
	mut.Lock()
	defer mut.Unlock()

	hooks = append(hooks, h)
}

// Shutdown starts the shutdown programmatically, as if SIGINT was received.
// It does nothing if no handler is installed.
func Shutdown() {
	mut.Lock()
	ch := channel
	mut.Unlock()

	if ch == nil {
		return
	}

	select {
	case ch <- os.Interrupt:
	default:
	}
}

// SetupHandler installs a handler for SIGINT and SIGTERM and returns a context
// derived from parent that is cancelled once the hooks have run.
func SetupHandler(parent context.Context) context.Context {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	mut.Lock()
	channel = ch
	mut.Unlock()

	ctx, cancel := context.WithCancel(parent)

	go func() {
		sig := <-ch

		signal.Stop(ch)

		mut.Lock()
		if channel == ch {
			channel = nil
		}
		mut.Unlock()

		logger.Get(ctx).Warn("Received " + sig.String() + ", shutting down...")

		cleanup()
		cancel()
	}()

	return ctx
}

func cleanup() {
	mut.Lock()
	pending := hooks
	hooks = nil
	mut.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		pending[i]()
	}
}
