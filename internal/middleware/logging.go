package middleware

import (
	"log"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	// SkipPaths are exact paths that are never logged.
	SkipPaths []string
	// SkipPrefixes silences request logs under the artifact mounts.
	SkipPrefixes    []string
	LogHealthChecks bool
}

// DefaultLoggingConfig logs everything except metrics scrapes.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{"/metrics"},
		LogHealthChecks: true,
	}
}

var healthCheckPaths = []string{"/healthz", "/livez", "/readyz"}

// Logger returns access-log middleware writing one W3C Extended Log Format
// line per request:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(User-Agent)
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			log.Println(formatLine(time.Now().UTC(), r, rw, time.Since(start)))
		})
	}
}

func shouldSkip(path string, config LoggingConfig) bool {
	if slices.Contains(config.SkipPaths, path) {
		return true
	}
	if slices.ContainsFunc(config.SkipPrefixes, func(p string) bool { return strings.HasPrefix(path, p) }) {
		return true
	}
	return !config.LogHealthChecks && slices.Contains(healthCheckPaths, path)
}

func formatLine(now time.Time, r *http.Request, rw *responseWriter, duration time.Duration) string {
	fields := []string{
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		w3cField(clientIP(r)),
		w3cField(r.Method),
		w3cField(r.URL.Path),
		w3cField(r.URL.RawQuery),
		strconv.Itoa(rw.statusCode),
		strconv.FormatInt(rw.bytesWritten, 10),
		strconv.FormatInt(duration.Milliseconds(), 10),
		w3cField(r.Header.Get("User-Agent")),
	}
	return strings.Join(fields, " ")
}

// w3cField sanitizes a client-controlled value, writes "-" for empty values
// and quotes values containing separators.
func w3cField(s string) string {
	s = sanitizeLogField(s)
	switch {
	case s == "":
		return "-"
	case strings.ContainsAny(s, " \t\""):
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	default:
		return s
	}
}

// sanitizeLogField turns CR and LF into spaces and drops every other control
// character except tab, so a request cannot forge log lines.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20, r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
