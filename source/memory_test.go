package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"imgbench/model"
)

// TestMemory_Stability testing in-place overwrite of volatile stores
func TestMemory_Stability(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	stable := NewMemory()
	require.NoError(t, stable.Put(ctx, "k", []byte("abc")))

	held, err := stable.GetBytes(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, stable.Put(ctx, "k", []byte("xyz")))
	require.Equal(t, []byte("abc"), held)
	require.True(t, IsStable(stable))

	volatile := NewMemory()
	volatile.Volatile = true
	require.NoError(t, volatile.Put(ctx, "k", []byte("abc")))

	held, err = volatile.GetBytes(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, volatile.Put(ctx, "k", []byte("xyz")))
	require.Equal(t, []byte("xyz"), held)
	require.False(t, IsStable(volatile))

	_, err = volatile.GetBytes(ctx, "other")
	require.ErrorIs(t, err, model.ErrNotFound)
}
