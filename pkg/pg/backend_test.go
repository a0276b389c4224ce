package pg_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
	"github.com/dmitrymomot/sessionstore/pkg/pg"
)

// setupBackend connects to PG_TEST_URL and skips the test when it is unset.
func setupBackend(t *testing.T) *pg.Backend {
	t.Helper()
	url := os.Getenv("PG_TEST_URL")
	if url == "" {
		t.Skip("PG_TEST_URL not set")
	}

	ctx := context.Background()
	cfg := pg.DefaultConfig()
	cfg.ConnectionString = url
	cfg.RetryAttempts = 1

	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, nil))
	require.NoError(t, pg.Healthcheck(pool)(ctx))
	return pg.NewBackend(pool)
}

// key returns a key unique to this run so tests can share a database.
func key(t *testing.T) string {
	return "test:" + t.Name() + ":" + uuid.NewString()
}

func TestBackend_SetGetDel(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	k := key(t)

	_, err := b.Get(ctx, k)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, b.Set(ctx, k, []byte("v1"), 0))
	got, err := b.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, b.Set(ctx, k, []byte("v2"), time.Minute))
	got, err = b.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	n, err := b.Del(ctx, k, k+":missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = b.Del(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackend_SetNX(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	k := key(t)

	ok, err := b.SetNX(ctx, k, []byte("first"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.SetNX(ctx, k, []byte("second"), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := b.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)
}

func TestBackend_Expiry(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	k := key(t)

	require.NoError(t, b.Set(ctx, k, []byte("v"), 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

	_, err := b.Get(ctx, k)
	assert.ErrorIs(t, err, kv.ErrNotFound)

	ok, err := b.SetNX(ctx, k, []byte("again"), 0)
	require.NoError(t, err)
	assert.True(t, ok, "expired rows do not block SetNX")

	_, err = b.DeleteExpired(ctx)
	require.NoError(t, err)
}

func TestBackend_ConditionalWrite(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	reject := func(current []byte, exists bool) bool { return !exists || string(current) != "tomb" }

	t.Run("absent key", func(t *testing.T) {
		k := key(t)
		ok, err := b.ConditionalWrite(ctx, k, reject, []byte("v"), 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("guard refuses", func(t *testing.T) {
		k := key(t)
		require.NoError(t, b.Set(ctx, k, []byte("tomb"), time.Minute))
		ok, err := b.ConditionalWrite(ctx, k, reject, []byte("v"), 0)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := b.Get(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, []byte("tomb"), got)
	})

	t.Run("serializes with set", func(t *testing.T) {
		k := key(t)
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := b.ConditionalWrite(ctx, k, reject, []byte("v"), 0)
				assert.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				assert.NoError(t, b.Set(ctx, k, []byte("tomb"), time.Minute))
			}()
		}
		wg.Wait()

		got, err := b.Get(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, []byte("tomb"), got, "a tombstone is never overwritten")
	})
}

func TestBackend_SetNXRacesConditionalWrite(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	for range 20 {
		k := key(t)
		absent := func(_ []byte, exists bool) bool { return !exists }

		var (
			wg           sync.WaitGroup
			inserted     bool
			committed    bool
			errNX, errCW error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			inserted, errNX = b.SetNX(ctx, k, []byte("setnx"), 0)
		}()
		go func() {
			defer wg.Done()
			committed, errCW = b.ConditionalWrite(ctx, k, absent, []byte("cw"), 0)
		}()
		wg.Wait()

		require.NoError(t, errNX)
		require.NoError(t, errCW)
		assert.True(t, inserted != committed, "exactly one writer must claim an absent key")

		got, err := b.Get(ctx, k)
		require.NoError(t, err)
		if inserted {
			assert.Equal(t, []byte("setnx"), got)
		} else {
			assert.Equal(t, []byte("cw"), got)
		}
	}
}
