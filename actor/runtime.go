package actor

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/amp-labs/eventual/bgworker"
	"github.com/amp-labs/eventual/logger"
	"github.com/amp-labs/eventual/shutdown"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const (
	sendNear     = "near"
	sendFar      = "far"
	sendPromise  = "promise"
	sendCallback = "callback"
)

// engine is what Start brings up. It is published atomically so batch tasks
// can read it without locking.
type engine struct {
	ctx  context.Context //nolint:containedctx
	pool *bgworker.Pool
}

// Runtime is the context every actor, message, and promise belongs to: it owns
// the worker pool, the id generators, the observer, and the main actor.
// Several runtimes can coexist in one process; their actors must not mix.
type Runtime struct {
	id       uuid.UUID
	name     string
	cfg      Config
	invoker  Invoker
	observer Observer
	ids      ids
	main     *Actor

	// chainMu serializes Promise.ChainTo.
	chainMu sync.Mutex

	engine        *atomic.Pointer[engine]
	started       *atomic.Bool
	stopped       *atomic.Bool
	mainRun       *atomic.Bool
	handleSignals bool
}

type runtimeOptions struct {
	cfg           Config
	observers     []Observer
	handleSignals bool
}

type Option func(*runtimeOptions)

// WithConfig replaces DefaultConfig().
func WithConfig(cfg Config) Option {
	return func(o *runtimeOptions) {
		o.cfg = cfg
	}
}

// WithObserver adds an observer. It can be given several times.
func WithObserver(obs Observer) Option {
	return func(o *runtimeOptions) {
		o.observers = append(o.observers, obs)
	}
}

// WithShutdownHandler makes Start register a shutdown hook that stops the
// runtime with the configured grace period.
func WithShutdownHandler() Option {
	return func(o *runtimeOptions) {
		o.handleSignals = true
	}
}

// New creates a runtime that executes messages with invoker. Nothing runs
// until Start is called.
func New(invoker Invoker, opts ...Option) *Runtime {
	options := &runtimeOptions{
		cfg: DefaultConfig(),
	}

	for _, opt := range opts {
		opt(options)
	}

	observers := options.observers
	if options.cfg.Trace {
		observers = append(observers, LogObserver{})
	}

	rt := &Runtime{
		id:            uuid.New(),
		name:          options.cfg.Name,
		cfg:           options.cfg,
		invoker:       invoker,
		observer:      Observers(observers...),
		ids:           newIDs(),
		engine:        atomic.NewPointer[engine](nil),
		started:       atomic.NewBool(false),
		stopped:       atomic.NewBool(false),
		mainRun:       atomic.NewBool(false),
		handleSignals: options.handleSignals,
	}

	rt.main = newActor(rt, true)

	return rt
}

// ID returns the runtime instance id.
func (rt *Runtime) ID() uuid.UUID { return rt.id }

// Name returns the configured runtime name.
func (rt *Runtime) Name() string { return rt.name }

// Config returns the configuration the runtime was created with.
func (rt *Runtime) Config() Config { return rt.cfg }

// Main returns the main actor.
func (rt *Runtime) Main() *Actor { return rt.main }

// Context returns the context batch tasks run with. Before Start it is a
// background context carrying the runtime's logging attributes.
func (rt *Runtime) Context() context.Context {
	if e := rt.engine.Load(); e != nil {
		return e.ctx
	}

	return rt.decorate(context.Background())
}

func (rt *Runtime) decorate(ctx context.Context) context.Context {
	if logger.GetSubsystem(ctx) == "" {
		ctx = logger.WithSubsystem(ctx, rt.name)
	}

	return logger.With(ctx, "runtime", rt.id.String())
}

// Start brings up the worker pool. workers <= 0 uses Config.Workers.
// Cancelling ctx stops batch tasks that have not started.
func (rt *Runtime) Start(ctx context.Context, workers int) error {
	if !rt.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if workers <= 0 {
		workers = rt.cfg.Workers
	}

	ctx = rt.decorate(ctx)

	pool := bgworker.New(ctx,
		bgworker.WithName(rt.name),
		bgworker.WithWorkers(workers))

	rt.engine.Store(&engine{ctx: ctx, pool: pool})

	if rt.handleSignals {
		shutdown.BeforeShutdown(func() {
			if err := rt.Shutdown(rt.cfg.ShutdownGrace); err != nil {
				logger.Get(ctx).Error("actor runtime did not shut down cleanly", "error", err)
			}
		})
	}

	logger.Get(ctx).Info("actor runtime started", "workers", pool.Workers())

	return nil
}

// Shutdown stops accepting batch tasks and waits up to grace for the running
// and queued ones. Sends made after Shutdown begins fail with ErrRejected.
func (rt *Runtime) Shutdown(grace time.Duration) error {
	e := rt.engine.Load()
	if e == nil {
		return ErrNotStarted
	}

	if !rt.stopped.CompareAndSwap(false, true) {
		return nil
	}

	err := e.pool.Shutdown(grace)
	if err != nil {
		logger.Get(e.ctx).Warn("actor runtime shutdown incomplete", "error", err)

		return fmt.Errorf("shutting down %s: %w", rt.name, err)
	}

	logger.Get(e.ctx).Info("actor runtime stopped")

	return nil
}

// Stopped reports whether Shutdown has been called.
func (rt *Runtime) Stopped() bool {
	return rt.stopped.Load()
}

func (rt *Runtime) submit(f func()) error {
	e := rt.engine.Load()
	if e == nil {
		return ErrNotStarted
	}

	return e.pool.Go(f)
}

// Run executes the application's first message on the calling goroutine as
// the main actor, then hands the main actor over to the worker pool. args[0]
// is the receiver. The returned promise settles with the message's result.
// Run can be called once.
func (rt *Runtime) Run(ctx context.Context, selector string, args ...any) (*Promise, error) {
	if !rt.started.Load() {
		return nil, ErrNotStarted
	}

	if len(args) == 0 {
		return nil, ErrNoReceiver
	}

	if !rt.mainRun.CompareAndSwap(false, true) {
		return nil, ErrMainAlreadyRun
	}

	main := rt.main
	promise, resolver := rt.NewPromise(main)
	msg := rt.newMessage(main, selector, slices.Clone(args), resolver, main)

	ctx = logger.WithActor(rt.decorate(ctx), main.id)

	msg.execute(ctx)
	main.release(ctx)

	return promise, nil
}

// CreateActor creates an actor that owns initial and returns a far reference
// to it. initial is handed over: transferables are deep-copied into the new
// actor and everything else is adopted as is, so the caller must not keep
// using mutable state it passes in.
func (rt *Runtime) CreateActor(initial any) (*FarReference, error) {
	if rt.stopped.Load() {
		return nil, fmt.Errorf("%w: %w", ErrRejected, bgworker.ErrPoolStopped)
	}

	a := newActor(rt, false)

	value := initial
	if tr, ok := initial.(Transferable); ok && !IsValue(initial) {
		value = newTransfer(nil, a).copy(tr)
	}

	rt.observer.ActorCreated(a)

	return newFarReference(a, value), nil
}

// NewPromise creates an unresolved promise owned by owner and its resolver.
func (rt *Runtime) NewPromise(owner *Actor) (*Promise, *Resolver) {
	p := newPromise(owner)

	return p, &Resolver{promise: p}
}

// Send is the eventual send: it delivers selector and args to args[0]
// asynchronously on behalf of current and returns a promise for the result.
//
// The receiver decides where the message goes: a far reference sends to its
// owner, a promise pipelines the message to whatever the promise resolves to,
// and anything else is treated as an object owned by current.
func (rt *Runtime) Send(current *Actor, selector string, args ...any) (*Promise, error) {
	return rt.send(current, selector, args, true)
}

// SendOneWay is Send without a result promise.
func (rt *Runtime) SendOneWay(current *Actor, selector string, args ...any) error {
	_, err := rt.send(current, selector, args, false)

	return err
}

func (rt *Runtime) send(current *Actor, selector string, args []any, withResult bool) (*Promise, error) {
	if len(args) == 0 {
		return nil, ErrNoReceiver
	}

	if err := rt.owns(current); err != nil {
		return nil, err
	}

	args = slices.Clone(args)

	var (
		promise  *Promise
		resolver *Resolver
	)

	if withResult {
		promise, resolver = rt.NewPromise(current)
	}

	switch rcvr := args[0].(type) {
	case *FarReference:
		target := rcvr.owner
		if err := rt.owns(target); err != nil {
			return nil, err
		}

		args[0] = rcvr.value
		for i := 1; i < len(args); i++ {
			args[i] = WrapForUse(args[i], current, target)
		}

		if err := rt.deliver(target, selector, args, resolver, current, sendFar); err != nil {
			return nil, err
		}
	case *Promise:
		p := rcvr
		if p.owner != current {
			p = p.chainedFor(current)
		}

		messagesSent.WithLabelValues(rt.name, sendPromise).Inc()
		p.addListener(&pipelinedSend{
			selector: selector,
			args:     args,
			resolver: resolver,
			sender:   current,
		})
	default:
		if err := rt.deliver(current, selector, args, resolver, current, sendNear); err != nil {
			return nil, err
		}
	}

	return promise, nil
}

func (rt *Runtime) deliver(target *Actor, selector string, args []any, resolver *Resolver, sender *Actor, kind string) error {
	messagesSent.WithLabelValues(rt.name, kind).Inc()

	return target.send(rt.newMessage(target, selector, args, resolver, sender))
}

// WhenResolved schedules block to run on current with the value of p once p
// resolves. The returned promise settles with the block's result, or with p's
// exception if p fails.
func (rt *Runtime) WhenResolved(current *Actor, p *Promise, block any) (*Promise, error) {
	return rt.registerCallback(current, p, &callback{onResolved: block, hasOnResolved: true})
}

// OnError schedules block to run on current with the exception value of p
// once p fails. A resolved p passes its value through to the returned promise.
func (rt *Runtime) OnError(current *Actor, p *Promise, block any) (*Promise, error) {
	return rt.registerCallback(current, p, &callback{onError: block, hasOnError: true})
}

// WhenResolvedOrError combines WhenResolved and OnError.
func (rt *Runtime) WhenResolvedOrError(current *Actor, p *Promise, onResolved, onError any) (*Promise, error) {
	return rt.registerCallback(current, p, &callback{
		onResolved:    onResolved,
		hasOnResolved: true,
		onError:       onError,
		hasOnError:    true,
	})
}

func (rt *Runtime) registerCallback(current *Actor, p *Promise, cb *callback) (*Promise, error) {
	if err := rt.owns(current); err != nil {
		return nil, err
	}

	if p.owner.rt != rt {
		return nil, ErrForeignActor
	}

	if p.owner != current {
		p = p.chainedFor(current)
	}

	result, resolver := rt.NewPromise(current)
	cb.owner = current
	cb.resolver = resolver

	messagesSent.WithLabelValues(rt.name, sendCallback).Inc()
	p.addListener(cb)

	return result, nil
}

func (rt *Runtime) newMessage(target *Actor, selector string, args []any, resolver *Resolver, sender *Actor) *EventualMessage {
	return &EventualMessage{
		id:       rt.ids.messages.Inc(),
		target:   target,
		selector: selector,
		args:     args,
		resolver: resolver,
		sender:   sender,
	}
}

func (rt *Runtime) owns(a *Actor) error {
	switch {
	case a == nil:
		return ErrNilActor
	case a.rt != rt:
		return fmt.Errorf("%w: %s", ErrForeignActor, a)
	default:
		return nil
	}
}
