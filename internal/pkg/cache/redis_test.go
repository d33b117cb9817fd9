package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCache(mr.Addr(), "order-service")
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key := c.GenerateKey("create", "1:abc")
	assert.Equal(t, "order-service:create:1:abc", key)

	require.NoError(t, c.Set(ctx, key, `{"ok":true}`, time.Minute))
	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, got)

	mr.FastForward(2 * time.Minute)
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisCache_MissIsNotAnError(t *testing.T) {
	c, _ := newTestCache(t)
	got, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestRedisCache_SetNXOnlyOnce(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second writer must lose")
	got, err := c.Get(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	require.NoError(t, c.Del(ctx, "lock"))
	assert.False(t, mr.Exists("lock"))

	ok, err = c.SetNX(ctx, "lock", "3", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "key is free again after Del")
}
