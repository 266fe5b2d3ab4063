package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("t")

	_, err := c.Get(ctx, "k")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), st.Hits)
	require.Equal(t, int64(2), st.Misses)
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Incr(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	for i := int64(1); i <= 3; i++ {
		n, err := c.Incr(ctx, "cnt", time.Minute)
		require.NoError(t, err)
		require.Equal(t, i, n)
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "memcached"})
	require.Error(t, err)
}

func TestMemory_IncrReadableByGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	_, _ = c.Incr(ctx, "n", time.Minute)
	_, _ = c.Incr(ctx, "n", time.Minute)
	v, err := c.Get(ctx, "n")
	require.NoError(t, err)
	require.Equal(t, "2", v)
}
