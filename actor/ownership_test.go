package actor

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plain struct {
	n int
}

type point struct {
	x, y int
}

func (point) ActorValue() {}

type label string

type node struct {
	label string
	data  []int
	next  *node
}

func (n *node) TransferTo(t *Transfer) any {
	c := &node{label: n.label, data: slices.Clone(n.data)}
	t.Remember(n, c)

	if n.next != nil {
		c.next = t.Field(n.next).(*node) //nolint:forcetypeassert
	}

	return c
}

// holder keeps whatever Transfer.Field makes of its content.
type holder struct {
	content any
}

func (h *holder) TransferTo(t *Transfer) any {
	return &holder{content: t.Field(h.content)}
}

// bag is a Transferable passed by value whose content is not hashable.
type bag struct {
	items any
}

func (b bag) TransferTo(t *Transfer) any {
	c := bag{items: b.items}
	if items, ok := b.items.([]int); ok {
		c.items = slices.Clone(items)
	}

	t.Remember(b, c)

	return c
}

func twoActors(t *testing.T) (*Runtime, *Actor, *Actor) {
	t.Helper()

	rt := New(nil, WithConfig(testConfig(t)))

	return rt, newActor(rt, false), newActor(rt, false)
}

func TestWrapForUseSameOwnerIsIdentity(t *testing.T) {
	t.Parallel()

	_, a, _ := twoActors(t)
	obj := &plain{n: 1}

	assert.Same(t, obj, WrapForUse(obj, a, a))
	assert.Same(t, obj, WrapForUse(obj, nil, a), "host values are handed over as is")
}

func TestWrapForUseValuesAreShared(t *testing.T) {
	t.Parallel()

	_, a, b := twoActors(t)
	sentinel := errors.New("boom")

	values := []any{nil, 42, "text", label("named"), 3.5, true, time.Second, point{x: 1, y: 2}, sentinel}

	for _, v := range values {
		assert.Equal(t, v, WrapForUse(v, a, b), "%T", v)
		assert.True(t, IsValue(v), "%T", v)
	}

	assert.Same(t, sentinel, WrapForUse(sentinel, a, b))
}

func TestWrapForUseMutableBecomesFarReference(t *testing.T) {
	t.Parallel()

	_, a, b := twoActors(t)
	obj := &plain{n: 1}

	wrapped := WrapForUse(obj, a, b)

	far, ok := wrapped.(*FarReference)
	require.True(t, ok)
	assert.Same(t, a, far.Owner())
	assert.Same(t, obj, far.Value())

	assert.False(t, IsValue(obj))
	assert.True(t, IsValue(far))
}

func TestWrapForUseRoundTrip(t *testing.T) {
	t.Parallel()

	_, a, b := twoActors(t)
	obj := &plain{n: 1}

	far := WrapForUse(obj, a, b)
	assert.Same(t, far, WrapForUse(far, b, newActor(a.rt, false)), "foreign far references pass through")
	assert.Same(t, obj, WrapForUse(far, b, a), "owner gets its object back")
}

func TestWrapForUseDeepCopiesTransferables(t *testing.T) {
	t.Parallel()

	_, a, b := twoActors(t)

	first := &node{label: "first", data: []int{1, 2, 3}}
	second := &node{label: "second", data: []int{4}}
	first.next = second
	second.next = first

	wrapped := WrapForUse(first, a, b)

	cp, ok := wrapped.(*node)
	require.True(t, ok)
	assert.NotSame(t, first, cp)
	assert.Equal(t, "first", cp.label)
	assert.Equal(t, []int{1, 2, 3}, cp.data)

	require.NotNil(t, cp.next)
	assert.NotSame(t, second, cp.next)
	assert.Same(t, cp, cp.next.next, "cycles survive the copy")

	first.data[0] = 99
	assert.Equal(t, 1, cp.data[0])
}

func TestTransferFieldWrapsNestedObjects(t *testing.T) {
	t.Parallel()

	_, a, b := twoActors(t)

	shared := &plain{n: 7}
	src := &holder{content: shared}

	cp, ok := WrapForUse(src, a, b).(*holder)
	require.True(t, ok)

	far, ok := cp.content.(*FarReference)
	require.True(t, ok, "non-transferable fields are far-referenced")
	assert.Same(t, shared, far.Value())
	assert.Same(t, a, far.Owner())
}

func TestWrapForUseChainsForeignPromises(t *testing.T) {
	t.Parallel()

	rt, a, b := twoActors(t)

	p, r := rt.NewPromise(a)

	wrapped, ok := WrapForUse(p, a, b).(*Promise)
	require.True(t, ok)
	assert.NotSame(t, p, wrapped)
	assert.Same(t, b, wrapped.Owner())
	assert.Equal(t, Chained, wrapped.State())

	obj := &plain{n: 3}
	require.NoError(t, r.Resolve(a, obj))

	state, value := wrapped.Result()
	assert.Equal(t, Resolved, state)

	far, ok := value.(*FarReference)
	require.True(t, ok)
	assert.Same(t, obj, far.Value())

	assert.Same(t, p, WrapForUse(p, b, a), "the owner sees its own promise")
}

func TestWrapForUseCopiesUnhashableValueTransferables(t *testing.T) {
	t.Parallel()

	_, a, b := twoActors(t)
	original := bag{items: []int{1, 2}}

	var wrapped any

	require.NotPanics(t, func() {
		wrapped = WrapForUse(original, a, b)
	})

	copied, ok := wrapped.(bag)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, copied.items)

	copied.items.([]int)[0] = 99 //nolint:forcetypeassert
	assert.Equal(t, []int{1, 2}, original.items)
}

func TestCreateActorCopiesNestedTransferables(t *testing.T) {
	t.Parallel()

	rt := New(nil, WithConfig(testConfig(t)))
	inner := &node{label: "inner", data: []int{1}}
	outer := &holder{content: inner}

	ref, err := rt.CreateActor(outer)
	require.NoError(t, err)

	adopted, ok := ref.Value().(*holder)
	require.True(t, ok)
	assert.NotSame(t, outer, adopted)

	copied, ok := adopted.content.(*node)
	require.True(t, ok)
	assert.NotSame(t, inner, copied)
	assert.Equal(t, "inner", copied.label)

	inner.data[0] = 99
	assert.Equal(t, []int{1}, copied.data)
}
