package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSettlesOnce(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)
	p, r := rt.NewPromise(a)

	assert.Equal(t, Unresolved, p.State())

	require.NoError(t, r.Resolve(a, 1))

	err := r.Resolve(a, 2)
	require.ErrorIs(t, err, ErrAlreadySettled)

	err = r.Error(a, "late")
	require.ErrorIs(t, err, ErrAlreadySettled)

	state, value := p.Result()
	assert.Equal(t, Resolved, state)
	assert.Equal(t, 1, value)
}

func TestConcurrentResolutionHasOneWinner(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)
	p, r := rt.NewPromise(a)

	const contenders = 32

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins []int
	)

	for i := range contenders {
		wg.Add(1)

		go func() {
			defer wg.Done()

			var err error
			if i%2 == 0 {
				err = r.Resolve(a, i)
			} else {
				err = r.Error(a, i)
			}

			if err == nil {
				mu.Lock()
				wins = append(wins, i)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	require.Len(t, wins, 1)

	state, value := p.Result()
	assert.True(t, state.Settled())
	assert.Equal(t, wins[0], value)
}

func TestChainBeforeSettle(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)
	p1, r1 := rt.NewPromise(a)
	p2, _ := rt.NewPromise(a)

	require.NoError(t, p2.ChainTo(p1))
	assert.Equal(t, Chained, p2.State())

	require.NoError(t, r1.Resolve(a, "v"))

	state, value := p2.Result()
	assert.Equal(t, Resolved, state)
	assert.Equal(t, "v", value)
}

func TestChainAfterSettle(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)
	p1, r1 := rt.NewPromise(a)
	p2, _ := rt.NewPromise(a)

	require.NoError(t, r1.Error(a, "e"))
	require.NoError(t, p2.ChainTo(p1))

	state, value := p2.Result()
	assert.Equal(t, Erroneous, state)
	assert.Equal(t, "e", value)
}

func TestChainedPromiseRejectsExplicitResolution(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)
	p1, r1 := rt.NewPromise(a)
	p2, r2 := rt.NewPromise(a)

	require.NoError(t, p2.ChainTo(p1))
	require.ErrorIs(t, r2.Resolve(a, "direct"), ErrAlreadySettled)
	require.ErrorIs(t, p2.ChainTo(p1), ErrAlreadySettled)

	require.NoError(t, r1.Resolve(a, "chained"))

	_, value := p2.Result()
	assert.Equal(t, "chained", value)
}

func TestChainCycles(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)
	p1, r1 := rt.NewPromise(a)
	p2, _ := rt.NewPromise(a)

	require.ErrorIs(t, p1.ChainTo(p1), ErrPromiseCycle)
	require.ErrorIs(t, r1.Resolve(a, p1), ErrPromiseCycle)

	require.NoError(t, p2.ChainTo(p1))
	require.ErrorIs(t, p1.ChainTo(p2), ErrPromiseCycle)
	assert.Equal(t, Unresolved, p1.State())
}

// Resolving with an unresolved promise chains to it rather than storing the
// promise as a value.
func TestResolveWithPromiseChains(t *testing.T) {
	t.Parallel()

	rt, a, b := twoActors(t)
	outer, outerResolver := rt.NewPromise(a)
	inner, innerResolver := rt.NewPromise(b)

	require.NoError(t, outerResolver.Resolve(a, inner))
	assert.Equal(t, Chained, outer.State())

	obj := &plain{n: 1}
	require.NoError(t, innerResolver.Resolve(b, obj))

	state, value := outer.Result()
	require.Equal(t, Resolved, state)

	far, ok := value.(*FarReference)
	require.True(t, ok, "the value crossed from b to a")
	assert.Same(t, obj, far.Value())
}

func TestLongChainsDoNotGrowTheStack(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)
	root, r := rt.NewPromise(a)

	last := root
	for range 100_000 {
		next, _ := rt.NewPromise(a)
		require.NoError(t, next.ChainTo(last))
		last = next
	}

	require.NoError(t, r.Resolve(a, "deep"))

	state, value := last.Result()
	assert.Equal(t, Resolved, state)
	assert.Equal(t, "deep", value)
}

func TestErrorsPropagateThroughChains(t *testing.T) {
	t.Parallel()

	rt, a, b := twoActors(t)
	p1, r1 := rt.NewPromise(a)
	p2 := p1.chainedFor(b)

	p3, _ := rt.NewPromise(b)
	require.NoError(t, p3.ChainTo(p2))

	cause := errors.New("failed")
	require.NoError(t, r1.Error(a, cause))

	for _, p := range []*Promise{p1, p2, p3} {
		state, value := p.Result()
		assert.Equal(t, Erroneous, state)
		assert.Same(t, cause, value)
	}
}

func TestAwait(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)

	p, r := rt.NewPromise(a)

	go func() {
		time.Sleep(10 * time.Millisecond)

		_ = r.Resolve(a, 5)
	}()

	assert.Equal(t, 5, mustAwait(t, p))

	failed, fr := rt.NewPromise(a)
	require.NoError(t, fr.Error(a, "bad"))

	_, err := await(t, failed)

	var exc *Exception
	require.ErrorAs(t, err, &exc)
	assert.Equal(t, "bad", exc.Value)

	pending, _ := rt.NewPromise(a)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = pending.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStateStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unresolved", Unresolved.String())
	assert.Equal(t, "chained", Chained.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "erroneous", Erroneous.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestConcurrentMutualChainingLeavesOneLink(t *testing.T) {
	t.Parallel()

	rt, a, _ := twoActors(t)

	for range 500 {
		p1, _ := rt.NewPromise(a)
		p2, _ := rt.NewPromise(a)

		var (
			wg         sync.WaitGroup
			err1, err2 error
		)

		wg.Add(2)

		go func() {
			defer wg.Done()

			err1 = p1.ChainTo(p2)
		}()

		go func() {
			defer wg.Done()

			err2 = p2.ChainTo(p1)
		}()

		wg.Wait()

		if err1 == nil {
			require.ErrorIs(t, err2, ErrPromiseCycle)
			assert.Equal(t, Unresolved, p2.State())
		} else {
			require.ErrorIs(t, err1, ErrPromiseCycle)
			require.NoError(t, err2)
			assert.Equal(t, Unresolved, p1.State())
		}
	}
}
