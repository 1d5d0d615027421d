package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
)

// Metrics records request latency labelled by the matched chi route pattern,
// so ids in paths do not explode label cardinality.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			m.Observe(r.Method, matchedPattern(r), rec.status, time.Since(start))
		})
	}
}

// matchedPattern is empty for unmatched requests, which the metric records as "unknown".
func matchedPattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		return rc.RoutePattern()
	}
	return ""
}

func routeLabel(r *http.Request) string {
	if p := matchedPattern(r); p != "" {
		return p
	}
	return "unknown"
}
