package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"media-processor/internal/metrics"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
	// Mounts are artifact prefixes whose file names are collapsed into
	// a single path label.
	Mounts []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns a middleware that records Prometheus metrics
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if r.URL.Path == path {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := newResponseWriter(w)
			start := time.Now()
			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path, config.Mounts)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath keeps label cardinality bounded: files under a mount become
// {mount}/{file}, anything else unknown becomes "other".
func normalizePath(path string, mounts []string) string {
	for _, m := range mounts {
		m = strings.TrimSuffix(m, "/")
		if strings.HasPrefix(path, m+"/") {
			return m + "/{file}"
		}
	}
	if slices.Contains(healthCheckPaths, path) || path == "/metrics" || path == "/version" {
		return path
	}
	return "other"
}
