// Package redis connects to Redis and exposes it as a kv.Backend for the
// session store.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the initial connection using the supplied
//     configuration and verifies it with PING.
//   - SplitNamespace, which understands server URLs carrying a key namespace
//     after the database number ("redis://host:6379/0/rack:session").
//   - Backend, the kv.Backend implementation: SET NX for id allocation and
//     WATCH/MULTI/EXEC for the conditional write used by the tombstone guard.
//   - Healthcheck for liveness / readiness probes.
//
// Configuration is described by the Config struct whose fields can be
// populated from environment variables via github.com/caarlos0/env.
//
// # Usage
//
//	cfg := redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0/rack:session",
//	    RetryAttempts:  3,
//	    RetryInterval:  5 * time.Second,
//	    ConnectTimeout: 30 * time.Second,
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // handle error, probably terminate the application
//	}
//	defer client.Close()
//
//	_, namespace, _ := redis.SplitNamespace(cfg.ConnectionURL)
//	store := session.NewStore(redis.NewBackend(client), session.WithNamespace(namespace))
//
// # Errors
//
// Connection level failures returned by Backend methods wrap kv.ErrUnavailable
// so the session store can fall back instead of failing the request. The
// connector defines its own sentinel errors (e.g. ErrRedisNotReady) joined with
// the underlying go-redis errors via errors.Join.
//
// # See Also
//
//   - https://github.com/redis/go-redis – underlying driver
package redis
