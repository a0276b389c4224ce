package redis

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect establishes a connection to a Redis server using the provided configuration.
// It attempts to connect multiple times based on the RetryAttempts config value,
// with a delay between attempts specified by RetryInterval.
//
// A key namespace embedded in the connection URL ("redis://host:6379/0/rack:session")
// is stripped before the URL reaches go-redis; use SplitNamespace to read it.
//
// Returns:
//   - *redis.Client: A connected Redis client if successful
//   - error: ErrFailedToParseRedisConnString if the connection URL is invalid
//     ErrRedisNotReady if all connection attempts fail
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	connURL, _, err := SplitNamespace(cfg.ConnectionURL)
	if err != nil {
		return nil, err
	}

	redisConnOpt, err := redis.ParseURL(connURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	for range max(cfg.RetryAttempts, 1) {
		redisClient := redis.NewClient(redisConnOpt)

		if err := redisClient.Ping(ctx).Err(); err == nil {
			return redisClient, nil
		}

		_ = redisClient.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// SplitNamespace separates the key namespace from a Redis server URL.
//
//	redis://127.0.0.1:6379/0/rack:session -> redis://127.0.0.1:6379/0, "rack:session"
//	redis://127.0.0.1:6379/rack:session   -> redis://127.0.0.1:6379,   "rack:session"
//	redis://127.0.0.1:6379/2              -> redis://127.0.0.1:6379/2, ""
func SplitNamespace(raw string) (connURL, namespace string, err error) {
	if raw == "" {
		return "", "", ErrEmptyConnectionURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", errors.Join(ErrFailedToParseRedisConnString, err)
	}

	path := strings.Trim(u.Path, "/")
	if path == "" {
		return raw, "", nil
	}

	db, rest, _ := strings.Cut(path, "/")
	if _, convErr := strconv.Atoi(db); convErr != nil {
		namespace = path
		u.Path = ""
	} else {
		namespace = rest
		u.Path = "/" + db
	}
	u.RawPath = ""

	return u.String(), namespace, nil
}
