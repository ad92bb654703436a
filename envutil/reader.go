package envutil

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrBadEnvVar     = errors.New("error parsing environment variable")
	ErrEnvVarMissing = errors.New("missing environment variable")
)

// Reader holds the outcome of reading one environment variable: whether it was
// set, the parsed value, and the parse error if there was one. Readers are
// values; options and Map return new ones.
type Reader[A any] struct {
	key     string
	present bool
	err     error

	value A
}

func (e Reader[A]) usable() bool {
	return e.present && e.err == nil
}

// Value returns the parsed value. Unset variables yield ErrEnvVarMissing and
// malformed ones ErrBadEnvVar.
func (e Reader[A]) Value() (A, error) { //nolint:ireturn
	switch {
	case e.err != nil:
		return e.value, fmt.Errorf("%w %s: %w", ErrBadEnvVar, e.key, e.err)
	case !e.present:
		return e.value, fmt.Errorf("%w %s", ErrEnvVarMissing, e.key)
	default:
		return e.value, nil
	}
}

// ValueOrElse returns the parsed value, or fallback when the variable is unset
// or malformed. A malformed value is logged, since it is usually a typo.
func (e Reader[A]) ValueOrElse(fallback A) A { //nolint:ireturn
	if e.usable() {
		return e.value
	}

	if e.err != nil {
		slog.Warn("ignoring malformed environment variable",
			"key", e.key, "error", e.err, "fallback", fallback)
	}

	return fallback
}

// DoWithValue calls f only when the variable is set and valid. Config overlays
// use it to leave fields untouched otherwise.
func (e Reader[A]) DoWithValue(f func(A)) {
	if e.usable() {
		f(e.value)
	}
}

// HasValue reports whether the variable is set and valid.
func (e Reader[A]) HasValue() bool {
	return e.usable()
}

// HasError reports whether the variable is set but could not be parsed or validated.
func (e Reader[A]) HasError() bool {
	return e.err != nil
}

// Map converts a Reader's value. Unset variables and earlier errors are carried
// over without calling f.
func Map[A any, B any](env Reader[A], f func(A) (B, error)) Reader[B] {
	out := Reader[B]{
		key:     env.key,
		present: env.present,
		err:     env.err,
	}

	if !env.usable() {
		return out
	}

	out.value, out.err = f(env.value)

	return out
}
