package actor

import (
	"context"
	"fmt"
	"sync"
)

// State is the lifecycle stage of a Promise.
type State int32

const (
	// Unresolved promises have no value yet.
	Unresolved State = iota
	// Chained promises will take on the outcome of another promise.
	Chained
	// Resolved promises hold a value.
	Resolved
	// Erroneous promises hold an exception value.
	Erroneous
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Chained:
		return "chained"
	case Resolved:
		return "resolved"
	case Erroneous:
		return "erroneous"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Settled reports whether s is final.
func (s State) Settled() bool {
	return s == Resolved || s == Erroneous
}

// listener is notified once, outside of any promise lock, when a promise settles.
type listener interface {
	onSettled(p *Promise, state State, value any)
}

// Promise is a placeholder for the eventual result of an asynchronous
// computation. It is owned by the actor that created it; other actors see it
// through a chained copy.
//
// A promise settles at most once. Settling delivers the outcome to every
// chained promise and registered listener exactly once, including ones added
// after the fact.
type Promise struct {
	id    uint64
	owner *Actor

	mu         sync.Mutex
	state      State
	value      any
	parent     *Promise
	dependents []*Promise
	listeners  []listener
	done       chan struct{}
}

// Resolver is the write capability of a Promise.
type Resolver struct {
	promise *Promise
}

func newPromise(owner *Actor) *Promise {
	promisesCreated.WithLabelValues(owner.rt.name).Inc()

	return &Promise{
		id:    owner.rt.ids.promises.Inc(),
		owner: owner,
		done:  make(chan struct{}),
	}
}

// ID returns the runtime-unique promise id.
func (p *Promise) ID() uint64 { return p.id }

// Owner returns the actor that owns the promise.
func (p *Promise) Owner() *Actor { return p.owner }

// State returns the current state.
func (p *Promise) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Result returns the state and, once settled, the value or exception value.
func (p *Promise) Result() (State, any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state, p.value
}

// Done is closed when the promise settles.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Await blocks until the promise settles or ctx is done. An erroneous promise
// returns its exception value wrapped in an *Exception. Actors must never call
// Await; it is for host code waiting on the outcome of a computation.
func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
	}

	state, value := p.Result()
	if state == Erroneous {
		return nil, &Exception{Value: value}
	}

	return value, nil
}

func (p *Promise) String() string {
	state, value := p.Result()
	if state.Settled() {
		return fmt.Sprintf("Promise[%d, %s, %v]", p.id, state, value)
	}

	return fmt.Sprintf("Promise[%d, %s]", p.id, state)
}

// ChainTo makes p take on the eventual outcome of other. If other has already
// settled, p settles immediately. p must be unresolved.
func (p *Promise) ChainTo(other *Promise) error {
	rt := p.owner.rt

	// Links are made one at a time so two promises can't chain to each other
	// concurrently.
	rt.chainMu.Lock()
	settled, err := p.link(other)
	rt.chainMu.Unlock()

	if err != nil {
		return err
	}

	if settled != nil {
		p.cascade(settled.state, WrapForUse(settled.value, other.owner, p.owner))
	}

	return nil
}

// link checks for a cycle, marks p chained, and registers it with other. It
// returns the outcome of other if other has already settled.
func (p *Promise) link(other *Promise) (*settlement, error) {
	// Only a promise that others already follow can close a cycle.
	p.mu.Lock()
	followed := len(p.dependents) > 0
	p.mu.Unlock()

	if other == p || (followed && other.reaches(p)) {
		return nil, fmt.Errorf("%w: promise %d to %d", ErrPromiseCycle, p.id, other.id)
	}

	p.mu.Lock()
	if p.state != Unresolved {
		state := p.state
		p.mu.Unlock()

		return nil, fmt.Errorf("%w: promise %d is %s", ErrAlreadySettled, p.id, state)
	}

	p.state = Chained
	p.parent = other
	p.mu.Unlock()

	other.mu.Lock()
	defer other.mu.Unlock()

	if other.state.Settled() {
		return &settlement{promise: p, state: other.state, value: other.value}, nil
	}

	other.dependents = append(other.dependents, p)

	return nil, nil //nolint:nilnil
}

// reaches reports whether target is p or one of the promises p is chained to.
func (p *Promise) reaches(target *Promise) bool {
	for cur := p; cur != nil; {
		if cur == target {
			return true
		}

		cur.mu.Lock()
		next := cur.parent
		if cur.state != Chained {
			next = nil
		}
		cur.mu.Unlock()

		cur = next
	}

	return false
}

// chainedFor returns a promise owned by target that follows p.
func (p *Promise) chainedFor(target *Actor) *Promise {
	c := newPromise(target)
	c.state = Chained
	c.parent = p

	p.addDependent(c)

	return c
}

func (p *Promise) addDependent(d *Promise) {
	p.mu.Lock()
	if !p.state.Settled() {
		p.dependents = append(p.dependents, d)
		p.mu.Unlock()

		return
	}

	state, value := p.state, p.value
	p.mu.Unlock()

	d.cascade(state, WrapForUse(value, p.owner, d.owner))
}

func (p *Promise) addListener(l listener) {
	p.mu.Lock()
	if !p.state.Settled() {
		p.listeners = append(p.listeners, l)
		p.mu.Unlock()

		return
	}

	state, value := p.state, p.value
	p.mu.Unlock()

	l.onSettled(p, state, value)
}

type settlement struct {
	promise *Promise
	state   State
	value   any
}

// settle is the explicit transition used by resolvers. Only unresolved
// promises accept it.
func (p *Promise) settle(state State, value any) error {
	deps, ls, err := p.transition(state, value, false)
	if err != nil {
		resolutionViolations.WithLabelValues(p.owner.rt.name).Inc()

		return err
	}

	p.propagate(state, value, deps, ls)

	return nil
}

// cascade settles a chained promise from the promise it follows.
func (p *Promise) cascade(state State, value any) {
	deps, ls, err := p.transition(state, value, true)
	if err != nil {
		resolutionViolations.WithLabelValues(p.owner.rt.name).Inc()

		return
	}

	p.propagate(state, value, deps, ls)
}

func (p *Promise) transition(state State, value any, fromChain bool) ([]*Promise, []listener, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.state == Unresolved:
	case p.state == Chained && fromChain:
	default:
		return nil, nil, fmt.Errorf("%w: promise %d is %s", ErrAlreadySettled, p.id, p.state)
	}

	p.state = state
	p.value = value
	p.parent = nil
	close(p.done)

	deps, ls := p.dependents, p.listeners
	p.dependents, p.listeners = nil, nil

	return deps, ls, nil
}

// propagate delivers an outcome through the chain. Dependents are settled in
// breadth-first order with a work queue so long chains don't grow the stack;
// listeners of each promise run right after it settles.
func (p *Promise) propagate(state State, value any, deps []*Promise, ls []listener) {
	p.settled(state, value, ls)

	queue := make([]settlement, 0, len(deps))
	for _, d := range deps {
		queue = append(queue, settlement{promise: d, state: state, value: WrapForUse(value, p.owner, d.owner)})
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		next, nextListeners, err := s.promise.transition(s.state, s.value, true)
		if err != nil {
			resolutionViolations.WithLabelValues(s.promise.owner.rt.name).Inc()

			continue
		}

		s.promise.settled(s.state, s.value, nextListeners)

		for _, d := range next {
			queue = append(queue, settlement{
				promise: d,
				state:   s.state,
				value:   WrapForUse(s.value, s.promise.owner, d.owner),
			})
		}
	}
}

func (p *Promise) settled(state State, value any, ls []listener) {
	rt := p.owner.rt

	promisesSettled.WithLabelValues(rt.name, state.String()).Inc()
	rt.observer.PromiseSettled(p)

	for _, l := range ls {
		l.onSettled(p, state, value)
	}
}

// Promise returns the promise this resolver settles.
func (r *Resolver) Promise() *Promise {
	return r.promise
}

// Resolve settles the promise with value, which belongs to current. The value
// is wrapped for the promise's owner first. Resolving with a promise chains to
// it instead.
func (r *Resolver) Resolve(current *Actor, value any) error {
	p := r.promise

	v := WrapForUse(value, current, p.owner)
	if other, ok := v.(*Promise); ok {
		return p.ChainTo(other)
	}

	return p.settle(Resolved, v)
}

// Error settles the promise as erroneous with an exception value belonging to current.
func (r *Resolver) Error(current *Actor, value any) error {
	p := r.promise

	return p.settle(Erroneous, WrapForUse(value, current, p.owner))
}

func (r *Resolver) String() string {
	return "Resolver[" + r.promise.String() + "]"
}
