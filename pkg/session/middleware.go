package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionstore/pkg/logger"
)

// Middleware loads the session and stores it in the request context.
// Handlers persist changes with Manager.Save.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := m.Load(r.Context(), r)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "failed to load session",
				logger.Component("session"),
				logger.Error(err),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}

// SkipMiddleware marks requests so Load hands out a fresh session without
// reading the store, e.g. for static assets.
func SkipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithSkip(r.Context())))
	})
}
