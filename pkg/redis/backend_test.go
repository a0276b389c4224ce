package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
	"github.com/dmitrymomot/sessionstore/pkg/redis"
)

func setup(t *testing.T) (*miniredis.Miniredis, *goredis.Client, *redis.Backend) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client, redis.NewBackend(client)
}

func TestBackend_SetNX(t *testing.T) {
	ctx := context.Background()
	mr, _, b := setup(t)

	ok, err := b.SetNX(ctx, "k", []byte("v1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.SetNX(ctx, "k", []byte("v2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestBackend_GetSetDel(t *testing.T) {
	ctx := context.Background()
	mr, _, b := setup(t)

	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, b.Set(ctx, "k", []byte("v"), 1500*time.Millisecond))
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	assert.Equal(t, 1500*time.Millisecond, mr.TTL("k"))

	mr.FastForward(2 * time.Second)
	_, err = b.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, b.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, b.Set(ctx, "b", []byte("2"), 0))
	n, err := b.Del(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = b.Del(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackend_ConditionalWrite(t *testing.T) {
	ctx := context.Background()
	accept := func([]byte, bool) bool { return true }

	t.Run("commits when guard accepts", func(t *testing.T) {
		mr, _, b := setup(t)
		require.NoError(t, mr.Set("k", "live"))

		var seen string
		ok, err := b.ConditionalWrite(ctx, "k", func(cur []byte, exists bool) bool {
			seen = string(cur)
			return exists
		}, []byte("next"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "live", seen)

		got, _ := mr.Get("k")
		assert.Equal(t, "next", got)
		assert.Equal(t, time.Minute, mr.TTL("k"))
	})

	t.Run("absent key reaches guard as not existing", func(t *testing.T) {
		mr, _, b := setup(t)
		var existed bool
		ok, err := b.ConditionalWrite(ctx, "k", func(_ []byte, exists bool) bool {
			existed = exists
			return true
		}, []byte("v"), 0)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, existed)
		assert.True(t, mr.Exists("k"))
	})

	t.Run("guard rejection leaves value untouched", func(t *testing.T) {
		mr, _, b := setup(t)
		require.NoError(t, mr.Set("k", "tomb"))

		ok, err := b.ConditionalWrite(ctx, "k", func(cur []byte, _ bool) bool {
			return string(cur) != "tomb"
		}, []byte("resurrected"), 0)
		require.NoError(t, err)
		assert.False(t, ok)

		got, _ := mr.Get("k")
		assert.Equal(t, "tomb", got)
	})

	t.Run("concurrent modification aborts exec", func(t *testing.T) {
		mr, client, b := setup(t)
		require.NoError(t, mr.Set("k", "live"))

		other := goredis.NewClient(&goredis.Options{Addr: client.Options().Addr})
		defer other.Close()

		ok, err := b.ConditionalWrite(ctx, "k", func([]byte, bool) bool {
			// another instance tombstones the key after our WATCH
			require.NoError(t, other.Set(ctx, "k", "tomb", 0).Err())
			return true
		}, []byte("late-write"), 0)
		require.NoError(t, err)
		assert.False(t, ok)

		got, _ := mr.Get("k")
		assert.Equal(t, "tomb", got)
	})

	t.Run("unreachable server is unavailable", func(t *testing.T) {
		mr, _, b := setup(t)
		mr.Close()

		_, err := b.ConditionalWrite(ctx, "k", accept, []byte("v"), 0)
		assert.True(t, kv.IsUnavailable(err), "got %v", err)

		_, err = b.Get(ctx, "k")
		assert.True(t, kv.IsUnavailable(err), "got %v", err)

		_, err = b.SetNX(ctx, "k", []byte("v"), 0)
		assert.True(t, kv.IsUnavailable(err), "got %v", err)
	})
}
