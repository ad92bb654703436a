package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPanic(t *testing.T) {
	t.Parallel()

	t.Run("nil panic value", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, FromPanic(nil, nil))
	})

	t.Run("error panic value keeps the chain", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("boom") //nolint:err113

		err := FromPanic(cause, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPanicRecovery)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("non-error panic value with stack", func(t *testing.T) {
		t.Parallel()

		err := FromPanic("kaput", []byte("goroutine 1 [running]"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPanicRecovery)
		assert.Contains(t, err.Error(), "kaput")
		assert.Contains(t, err.Error(), "goroutine 1 [running]")
	})
}

func TestCollection(t *testing.T) {
	t.Parallel()

	t.Run("empty collection", func(t *testing.T) {
		t.Parallel()

		c := &Collection{}
		c.Add(nil)

		assert.False(t, c.HasError())
		assert.Equal(t, 0, c.Len())
		assert.NoError(t, c.GetError())
	})

	t.Run("single error is returned as is", func(t *testing.T) {
		t.Parallel()

		err1 := errors.New("error 1") //nolint:err113

		c := &Collection{}
		c.Add(err1)

		assert.True(t, c.HasError())
		assert.Same(t, err1, c.GetError())
	})

	t.Run("multiple errors are joined", func(t *testing.T) {
		t.Parallel()

		err1 := errors.New("error 1") //nolint:err113
		err2 := errors.New("error 2") //nolint:err113

		c := &Collection{}
		c.Add(err1)
		c.Add(nil)
		c.Add(err2)

		assert.Equal(t, 2, c.Len())

		err := c.GetError()
		require.Error(t, err)
		assert.ErrorIs(t, err, err1)
		assert.ErrorIs(t, err, err2)
	})
}
