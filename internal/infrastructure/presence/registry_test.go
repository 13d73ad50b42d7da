package presence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRegistry(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	t.Run("connect and query", func(t *testing.T) {
		require.NoError(t, reg.Connect(ctx, alice))

		online, err := reg.IsOnline(ctx, alice)
		require.NoError(t, err)
		assert.True(t, online)

		online, err = reg.IsOnline(ctx, bob)
		require.NoError(t, err)
		assert.False(t, online)
	})

	t.Run("count tracks connections", func(t *testing.T) {
		require.NoError(t, reg.Connect(ctx, bob))

		count, err := reg.OnlineCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("disconnect removes the mark", func(t *testing.T) {
		require.NoError(t, reg.Disconnect(ctx, alice))

		online, err := reg.IsOnline(ctx, alice)
		require.NoError(t, err)
		assert.False(t, online)

		count, err := reg.OnlineCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("heartbeat keeps the account online", func(t *testing.T) {
		require.NoError(t, reg.Heartbeat(ctx, bob))

		online, err := reg.IsOnline(ctx, bob)
		require.NoError(t, err)
		assert.True(t, online)
	})
}
