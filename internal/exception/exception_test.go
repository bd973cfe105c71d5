package exception

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRethrowAnnotatesCause(t *testing.T) {
	base := errors.New("disk full")
	err := Rethrow(base, "newTodo")

	require.Error(t, err)
	assert.Equal(t, `disk full (caused by "newTodo")`, err.Error())
	assert.ErrorIs(t, err, base)

	var annotated *Error
	require.ErrorAs(t, err, &annotated)
	assert.Equal(t, "newTodo", annotated.Cause)
}

func TestRethrowKeepsFirstCause(t *testing.T) {
	err := Rethrow(Rethrow(errors.New("x"), "inner"), "outer")
	assert.Equal(t, `x (caused by "inner")`, err.Error())
}

func TestRethrowNil(t *testing.T) {
	assert.NoError(t, Rethrow(nil, "anything"))
}

func TestSwallowLogs(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Swallow(zap.New(core))

	assert.NoError(t, h(errors.New("boom"), "itemRemove"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "event handler failed", entry.Message)
	assert.Equal(t, "itemRemove", entry.ContextMap()["cause"])
}

func TestGuard(t *testing.T) {
	t.Run("no error", func(t *testing.T) {
		assert.NoError(t, Guard(Rethrow, "x", func() error { return nil }))
	})

	t.Run("error routed through handler", func(t *testing.T) {
		err := Guard(Rethrow, "itemEditDone", func() error { return errors.New("bad") })
		assert.EqualError(t, err, `bad (caused by "itemEditDone")`)
	})

	t.Run("panic becomes error", func(t *testing.T) {
		err := Guard(Rethrow, "toggleAll", func() error { panic("kaboom") })
		require.Error(t, err)
		var perr *PanicError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "kaboom", perr.Value)
		assert.Contains(t, err.Error(), `(caused by "toggleAll")`)
	})

	t.Run("panic with error value", func(t *testing.T) {
		base := errors.New("typed")
		err := Guard(Rethrow, "c", func() error { panic(base) })
		assert.ErrorIs(t, err, base)
	})

	t.Run("swallowed", func(t *testing.T) {
		err := Guard(Swallow(nil), "c", func() error { return errors.New("lost") })
		assert.NoError(t, err)
	})

	t.Run("nil handler rethrows", func(t *testing.T) {
		err := Guard(nil, "c", func() error { return errors.New("e") })
		assert.EqualError(t, err, `e (caused by "c")`)
	})
}
