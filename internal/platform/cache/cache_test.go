package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vinculacion/pkg/platform/sentinel"
)

func TestMemory_ExpiresEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewMemory(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "token", "abc", time.Minute))

	v, ok, err := c.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire exactly at its ttl")
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(nil)
	require.NoError(t, c.Set(ctx, "k", "v", time.Hour))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_UnreachableIsUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedis(client)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "linix_access_token")
	assert.False(t, ok)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.ErrorIs(t, c.Set(ctx, "linix_access_token", "tok", time.Minute), sentinel.ErrUnavailable)
	assert.ErrorIs(t, c.Delete(ctx, "linix_access_token"), sentinel.ErrUnavailable)
}
