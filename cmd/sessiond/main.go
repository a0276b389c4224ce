// Command sessiond serves session state over HTTP on top of a pluggable
// key-value backend (redis, postgres, mongo or memory).
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionstore/pkg/config"
	"github.com/dmitrymomot/sessionstore/pkg/cookie"
	"github.com/dmitrymomot/sessionstore/pkg/httpserver"
	"github.com/dmitrymomot/sessionstore/pkg/logger"
	"github.com/dmitrymomot/sessionstore/pkg/requestid"
	"github.com/dmitrymomot/sessionstore/pkg/session"
)

// appConfig selects the backend and how the session id travels.
type appConfig struct {
	Backend               string        `env:"SESSION_BACKEND" envDefault:"redis"`
	Transport             string        `env:"SESSION_TRANSPORT" envDefault:"cookie"` // "cookie" or "header"
	HeaderName            string        `env:"SESSION_HEADER_NAME" envDefault:"X-Session-Id"`
	MemoryCleanupInterval time.Duration `env:"SESSION_MEMORY_CLEANUP_INTERVAL" envDefault:"1m"`
}

var errUnknownTransport = errors.New("unknown session transport")

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log, err := logger.NewFromConfig(logCfg, logger.WithContextExtractors(requestid.LoggerExtractor()))
	if err != nil {
		slog.Error("invalid logger configuration", logger.Error(err))
		os.Exit(1)
	}
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("sessiond stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg    appConfig
		srvCfg    httpserver.Config
		cookieCfg = cookie.DefaultConfig()
		sessCfg   = session.DefaultConfig()
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&srvCfg)
	config.MustLoad(&cookieCfg)
	config.MustLoad(&sessCfg)

	store, err := openStorage(ctx, appCfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	if store.namespace != "" {
		sessCfg.Namespace = store.namespace
	}

	transport, err := newTransport(appCfg, sessCfg, cookieCfg)
	if err != nil {
		return err
	}

	sessions := session.NewManager(
		session.NewStoreFromConfig(store.backend, sessCfg, session.WithLogger(log)),
		transport,
		session.WithManagerLogger(log),
	)

	return httpserver.NewFromConfig(srvCfg, httpserver.WithLogger(log)).
		Run(ctx, newRouter(sessions, store.checks, log))
}

func newTransport(app appConfig, sess session.Config, cookieCfg cookie.Config) (session.Transport, error) {
	switch app.Transport {
	case "cookie":
		cookies, err := cookie.NewFromConfig(cookieCfg)
		if err != nil {
			return nil, err
		}
		return session.NewCookieTransport(cookies, sess.CookieName, sess.SecureCookies), nil
	case "header":
		return session.NewHeaderTransport(app.HeaderName), nil
	default:
		return nil, errUnknownTransport
	}
}

func newRouter(sessions *session.Manager, checks map[string]httpserver.Check, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, instrument)

	r.Get("/metrics", metricsHandler)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, checks))

	a := &api{sessions: sessions, log: log}
	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		a.routes(r)
	})

	return r
}
