package middleware

import (
	"net/http"
	"strconv"
	"time"

	"chimu/internal/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Metrics records request count and duration per route pattern, so
// /api/v1/jams/{jamID} stays one label value instead of one per jam.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		status := strconv.Itoa(ww.Status())
		metrics.RequestCounter.WithLabelValues(status, r.Method, pattern).Inc()
		metrics.RequestDuration.WithLabelValues(status, r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
