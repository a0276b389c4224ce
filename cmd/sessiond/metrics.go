package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionstore/pkg/session"
)

// instrument records request latency per chi route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.GetOrCreateHistogram(
			fmt.Sprintf(`sessiond_request_duration_seconds{method=%q,route=%q}`, r.Method, route),
		).UpdateDuration(start)
	})
}

// countWrite tracks session write outcomes, including writes dropped by a
// concurrent delete.
func countWrite(status session.WriteStatus) {
	metrics.GetOrCreateCounter(
		fmt.Sprintf(`sessiond_session_writes_total{status=%q}`, status.String()),
	).Inc()
}

func metricsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	metrics.WritePrometheus(w, true)
}
