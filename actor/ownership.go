package actor

import (
	"fmt"
	"reflect"
)

// Value marks types whose instances are deeply immutable. Values cross actor
// boundaries untouched.
type Value interface {
	ActorValue()
}

// Transferable is implemented by mutable objects that are deep-copied, rather
// than far-referenced, when they cross into another actor.
//
// TransferTo returns the copy. Fields that may hold objects must be passed
// through t.Field, and objects that can be part of a cycle must call
// t.Remember(original, copy) before copying their fields.
type Transferable interface {
	TransferTo(t *Transfer) any
}

// Transfer carries the state of one deep copy from one actor to another. The
// memo guarantees each object reachable from the root is copied once, so
// shared structure and cycles survive the copy.
type Transfer struct {
	from   *Actor
	to     *Actor
	copies map[any]any
}

func newTransfer(from, to *Actor) *Transfer {
	return &Transfer{
		from:   from,
		to:     to,
		copies: make(map[any]any),
	}
}

// From returns the actor the copied object belongs to. Nil means the host.
func (t *Transfer) From() *Actor { return t.from }

// To returns the actor receiving the copy.
func (t *Transfer) To() *Actor { return t.to }

// Field prepares a value referenced by an object being transferred.
func (t *Transfer) Field(v any) any {
	return wrap(v, t.from, t.to, t)
}

// Remember records copy as the transferred form of original. Later references
// to original within the same transfer resolve to copy. Only pointers are
// remembered.
func (t *Transfer) Remember(original, copied any) {
	if !isMemoKey(original) {
		return
	}

	t.copies[original] = copied
}

func (t *Transfer) copy(obj Transferable) any {
	key := isMemoKey(obj)
	if key {
		if c, ok := t.copies[obj]; ok {
			return c
		}
	}

	c := obj.TransferTo(t)

	if key {
		if _, ok := t.copies[obj]; !ok {
			t.copies[obj] = c
		}
	}

	if t.to != nil {
		transfersTotal.WithLabelValues(t.to.rt.name).Inc()
	}

	return c
}

// FarReference is a proxy for an object owned by another actor. Sending to it
// enqueues a message on the owner. Far references are themselves values and
// can be passed anywhere.
type FarReference struct {
	owner *Actor
	value any
}

func newFarReference(owner *Actor, value any) *FarReference {
	if owner != nil {
		farReferencesCreated.WithLabelValues(owner.rt.name).Inc()
	}

	return &FarReference{
		owner: owner,
		value: value,
	}
}

// Owner returns the actor that owns the referenced object.
func (f *FarReference) Owner() *Actor { return f.owner }

// Value returns the referenced object. Only the owner may use it.
func (f *FarReference) Value() any { return f.value }

func (f *FarReference) ActorValue() {}

func (f *FarReference) String() string {
	return fmt.Sprintf("FarRef[%v, %s]", f.value, f.owner)
}

// WrapForUse prepares value, owned by owner, for use by target:
//   - the same actor, or a nil owner (the host), gets value as is;
//   - a far reference owned by target is unwrapped to the object, any other
//     far reference passes through;
//   - a promise owned by another actor becomes a new promise owned by target
//     and chained to it;
//   - values pass through;
//   - transferables are deep-copied;
//   - everything else becomes a far reference owned by owner.
func WrapForUse(value any, owner, target *Actor) any {
	return wrap(value, owner, target, nil)
}

func wrap(value any, owner, target *Actor, t *Transfer) any {
	if owner == target {
		return value
	}

	if owner == nil {
		// Objects reachable from a host object being adopted are copied too,
		// so the new owner shares no mutable state with the host.
		if tr, ok := value.(Transferable); ok && t != nil && !IsValue(value) {
			return t.copy(tr)
		}

		return value
	}

	switch v := value.(type) {
	case *FarReference:
		if v.owner == target {
			return v.value
		}

		return v
	case *Promise:
		if v.owner == target {
			return v
		}

		return v.chainedFor(target)
	}

	if IsValue(value) {
		return value
	}

	if tr, ok := value.(Transferable); ok {
		if t == nil {
			t = newTransfer(owner, target)
		}

		return t.copy(tr)
	}

	return newFarReference(owner, value)
}

// IsValue reports whether v may be shared between actors without wrapping.
// Besides Value implementations this covers nil, errors, and every type whose
// kind is a boolean, number, or string.
func IsValue(v any) bool {
	switch v.(type) {
	case nil, Value, error:
		return true
	}

	switch reflect.TypeOf(v).Kind() { //nolint:exhaustive
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// isMemoKey reports whether v can key the transfer memo. Only pointers carry
// an identity worth remembering, and hashing them never panics.
func isMemoKey(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Pointer
}
