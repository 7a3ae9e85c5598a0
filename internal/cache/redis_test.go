package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/cache"
	"github.com/tournevent/courier/pkg/shipper/area"
)

var _ area.Cache = (*cache.RedisCache)(nil)

func TestRedisCache_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := cache.NewRedisCacheWithClient(client, "test:")

	_, ok, err := c.Get(context.Background(), "k")

	assert.Error(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	c, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: addr}, "courier-test:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get(ctx, "redx:areas:dhaka")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "redx:areas:dhaka", []byte(`[{"id":1}]`), time.Minute))

	v, ok, err := c.Get(ctx, "redx:areas:dhaka")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":1}]`, string(v))
}
