package emitter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Run("NilConfig", func(t *testing.T) {
		bus := New(nil)
		require.NotNil(t, bus)

		// The default sink swallows failures through the nop logger.
		_, err := bus.Subscribe("tick", func(args ...any) error { return errors.New("boom") })
		require.NoError(t, err)
		assert.NotPanics(t, func() { bus.Emit("tick") })
	})

	t.Run("NilFields", func(t *testing.T) {
		bus := New(&Config{})
		require.NotNil(t, bus)

		_, err := bus.Subscribe("tick", func(args ...any) error { panic("kaboom") })
		require.NoError(t, err)
		assert.NotPanics(t, func() { bus.Emit("tick") })
	})
}
