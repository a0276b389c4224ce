package mongo_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
	"github.com/dmitrymomot/sessionstore/pkg/mongo"
)

// setupBackend connects to MONGODB_TEST_URL and skips the test when it is unset.
func setupBackend(t *testing.T) *mongo.Backend {
	t.Helper()
	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		t.Skip("MONGODB_TEST_URL not set")
	}

	ctx := context.Background()
	cfg := mongo.DefaultConfig()
	cfg.ConnectionURL = url
	cfg.RetryAttempts = 1
	cfg.Collection = "sessions_test_" + uuid.NewString()[:8]

	client, err := mongo.New(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, mongo.Healthcheck(client)(ctx))

	coll := mongo.Collection(client, cfg)
	t.Cleanup(func() {
		_ = coll.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	b := mongo.NewBackend(coll)
	require.NoError(t, b.EnsureIndexes(ctx))
	return b
}

func TestBackend_SetGetDel(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, b.Set(ctx, "k", []byte("v1"), time.Minute))
	require.NoError(t, b.Set(ctx, "k", []byte("v2"), 0))
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	n, err := b.Del(ctx, "k", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = b.Del(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBackend_SetNX(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	ok, err := b.SetNX(ctx, "k", []byte("first"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.SetNX(ctx, "k", []byte("second"), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, "short", []byte("v"), 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)
	_, err = b.Get(ctx, "short")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	ok, err = b.SetNX(ctx, "short", []byte("again"), 0)
	require.NoError(t, err)
	assert.True(t, ok, "expired documents do not block SetNX")
}

func TestBackend_ConditionalWrite(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	reject := func(current []byte, exists bool) bool { return !exists || string(current) != "tomb" }

	ok, err := b.ConditionalWrite(ctx, "new", reject, []byte("v"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.ConditionalWrite(ctx, "new", reject, []byte("v2"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Set(ctx, "new", []byte("tomb"), time.Minute))
	ok, err = b.ConditionalWrite(ctx, "new", reject, []byte("v3"), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("concurrent set wins", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := b.ConditionalWrite(ctx, "race", reject, []byte("v"), 0)
				assert.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				assert.NoError(t, b.Set(ctx, "race", []byte("tomb"), time.Minute))
			}()
		}
		wg.Wait()

		got, err := b.Get(ctx, "race")
		require.NoError(t, err)
		assert.Equal(t, []byte("tomb"), got)
	})
}

func TestIsUnavailableError(t *testing.T) {
	assert.False(t, mongo.IsUnavailableError(nil))
	assert.False(t, mongo.IsUnavailableError(errors.New("boom")))
	assert.False(t, mongo.IsUnavailableError(driver.ErrNoDocuments))
	assert.True(t, mongo.IsUnavailableError(driver.ErrClientDisconnected))
	assert.True(t, mongo.IsUnavailableError(context.DeadlineExceeded))
}

func TestNew_EmptyURL(t *testing.T) {
	_, err := mongo.New(context.Background(), mongo.DefaultConfig())
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}
