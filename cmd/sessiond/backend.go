package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/sessionstore/pkg/config"
	"github.com/dmitrymomot/sessionstore/pkg/httpserver"
	"github.com/dmitrymomot/sessionstore/pkg/kv"
	"github.com/dmitrymomot/sessionstore/pkg/logger"
	"github.com/dmitrymomot/sessionstore/pkg/mongo"
	"github.com/dmitrymomot/sessionstore/pkg/pg"
	"github.com/dmitrymomot/sessionstore/pkg/redis"
)

const (
	backendRedis    = "redis"
	backendPostgres = "postgres"
	backendMongo    = "mongo"
	backendMemory   = "memory"
)

var errUnknownBackend = errors.New("unknown session backend")

// storage is an opened backend with its readiness checks and cleanup.
type storage struct {
	backend   kv.Backend
	namespace string // overrides the session namespace when set
	checks    map[string]httpserver.Check
	close     func()
}

func openStorage(ctx context.Context, cfg appConfig, log *slog.Logger) (*storage, error) {
	log = log.With(logger.Backend(cfg.Backend))

	switch cfg.Backend {
	case backendRedis:
		return openRedis(ctx, log)
	case backendPostgres:
		return openPostgres(ctx, log)
	case backendMongo:
		return openMongo(ctx, log)
	case backendMemory:
		mem := kv.NewMemoryBackend(cfg.MemoryCleanupInterval)
		return &storage{
			backend: mem,
			checks:  map[string]httpserver.Check{},
			close:   func() { _ = mem.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
	}
}

func openRedis(ctx context.Context, log *slog.Logger) (*storage, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	_, namespace, err := redis.SplitNamespace(cfg.ConnectionURL)
	if err != nil {
		return nil, err
	}

	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "connected to session backend")

	return &storage{
		backend:   redis.NewBackend(client),
		namespace: namespace,
		checks:    map[string]httpserver.Check{backendRedis: redis.Healthcheck(client)},
		close:     func() { _ = client.Close() },
	}, nil
}

func openPostgres(ctx context.Context, log *slog.Logger) (*storage, error) {
	cfg := pg.DefaultConfig()
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
		pool.Close()
		return nil, err
	}
	log.InfoContext(ctx, "connected to session backend")

	backend := pg.NewBackend(pool)
	cleanupCtx, stopCleanup := context.WithCancel(context.WithoutCancel(ctx))
	go backend.Cleanup(cleanupCtx, cfg.CleanupInterval, log)

	return &storage{
		backend: backend,
		checks:  map[string]httpserver.Check{backendPostgres: pg.Healthcheck(pool)},
		close: func() {
			stopCleanup()
			pool.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, log *slog.Logger) (*storage, error) {
	cfg := mongo.DefaultConfig()
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	client, err := mongo.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend := mongo.NewBackend(mongo.Collection(client, cfg))
	if err := backend.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	log.InfoContext(ctx, "connected to session backend")

	return &storage{
		backend: backend,
		checks:  map[string]httpserver.Check{backendMongo: mongo.Healthcheck(client)},
		close:   func() { _ = client.Disconnect(context.Background()) },
	}, nil
}
