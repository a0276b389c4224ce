package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionstore/pkg/redis"
)

func TestSplitNamespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw       string
		wantURL   string
		wantSpace string
	}{
		{"redis://127.0.0.1:6379/0/rack:session", "redis://127.0.0.1:6379/0", "rack:session"},
		{"redis://127.0.0.1:6379/rack:session", "redis://127.0.0.1:6379", "rack:session"},
		{"redis://127.0.0.1:6379/2", "redis://127.0.0.1:6379/2", ""},
		{"redis://127.0.0.1:6379", "redis://127.0.0.1:6379", ""},
		{"redis://:secret@localhost:6379/1/app:sess", "redis://:secret@localhost:6379/1", "app:sess"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, ns, err := redis.SplitNamespace(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, u)
			assert.Equal(t, tt.wantSpace, ns)
		})
	}

	_, _, err := redis.SplitNamespace("")
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, _, err = redis.SplitNamespace("://bad url")
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("connects and strips namespace", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := redis.Connect(ctx, redis.Config{
			ConnectionURL:  "redis://" + mr.Addr() + "/0/rack:session",
			RetryAttempts:  1,
			ConnectTimeout: 5 * time.Second,
		})
		require.NoError(t, err)
		defer client.Close()

		require.NoError(t, redis.Healthcheck(client)(ctx))
	})

	t.Run("gives up on unreachable server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := redis.Connect(ctx, redis.Config{
			ConnectionURL:  "redis://" + addr + "/0",
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: 5 * time.Second,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})

	t.Run("empty url", func(t *testing.T) {
		_, err := redis.Connect(ctx, redis.Config{})
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})
}
