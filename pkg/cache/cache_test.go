package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c, err := New(16, time.Minute, client, nil)
	require.NoError(t, err)
	return c, mr
}

func TestCache_MissThenHit(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, ProductKey(1))
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, ProductKey(1), []byte(`{"id":1}`)))

	got, err := c.Get(ctx, ProductKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), got)
}

func TestCache_RedisPromotesToLocal(t *testing.T) {
	c, mr := newRedisCache(t)
	ctx := context.Background()

	// Seed Redis directly, bypassing the local tier.
	require.NoError(t, mr.Set(CategoriesKey, `[{"id":1,"name":"books"}]`))

	got, err := c.Get(ctx, CategoriesKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":1,"name":"books"}]`), got)

	// Now cached locally, so a Redis flush does not cause a miss.
	mr.FlushAll()
	got, err = c.Get(ctx, CategoriesKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":1,"name":"books"}]`), got)
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ProductKey(7), []byte(`{"id":7}`)))
	require.NoError(t, c.Invalidate(ctx, ProductKey(7), CategoriesKey))

	_, err := c.Get(ctx, ProductKey(7))
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c, err := New(16, time.Second, client, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ProductKey(3), []byte(`{"id":3}`)))

	// Drop the local copy and advance the Redis clock past the TTL.
	c.local.Remove(ProductKey(3))
	mr.FastForward(2 * time.Second)

	_, err = c.Get(ctx, ProductKey(3))
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_LocalOnly(t *testing.T) {
	c, err := New(16, time.Minute, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ProductKey(9), []byte(`{"id":9}`)))

	got, err := c.Get(ctx, ProductKey(9))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":9}`), got)
}
