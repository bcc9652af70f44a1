package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strings"
	"time"

	"media-processor/internal/config"
	"media-processor/internal/logging"
	"media-processor/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// Options configures the HTTP surface.
type Options struct {
	ThumbnailsDir   string
	ThumbnailsMount string
	ProcessedDir    string
	ProcessedMount  string
	Backend         string
	MetricsEnabled  bool
	// Ready returns the problems that keep the processor from ingesting.
	// nil means ready.
	Ready func() []string
}

// Server serves health probes, metrics and the artifact directories.
type Server struct {
	opts    Options
	started time.Time
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Ready == nil {
		opts.Ready = func() []string { return nil }
	}
	return &Server{opts: opts, started: time.Now()}
}

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string   `json:"status"`
	Ready        bool     `json:"ready"`
	Version      string   `json:"version"`
	Uptime       string   `json:"uptime"`
	Backend      string   `json:"backend"`
	Problems     []string `json:"problems,omitempty"`
	GoVersion    string   `json:"goVersion"`
	NumCPU       int      `json:"numCpu"`
	NumGoroutine int      `json:"numGoroutine"`
}

// Router builds the routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", s.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", s.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", s.Version).Methods("GET")
	if s.opts.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	s.mount(r, s.opts.ThumbnailsMount, s.opts.ThumbnailsDir)
	s.mount(r, s.opts.ProcessedMount, s.opts.ProcessedDir)
	return r
}

// Handler returns the router wrapped in logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mounts := []string{s.opts.ThumbnailsMount, s.opts.ProcessedMount}

	var h http.Handler = s.Router()
	if s.opts.MetricsEnabled {
		mcfg := middleware.DefaultMetricsConfig()
		mcfg.Mounts = mounts
		h = middleware.Metrics(mcfg)(h)
	}
	lcfg := middleware.DefaultLoggingConfig()
	if !logging.IsDebugEnabled() {
		lcfg.SkipPrefixes = mounts
	}
	return middleware.Logger(lcfg)(h)
}

// mount serves dir read-only under prefix. Directory listings are refused.
func (s *Server) mount(r *mux.Router, prefix, dir string) {
	if prefix == "" || dir == "" {
		return
	}
	prefix = "/" + strings.Trim(prefix, "/")
	files := http.StripPrefix(prefix, noListing(http.FileServer(http.Dir(dir))))
	r.PathPrefix(prefix + "/").Handler(files).Methods("GET", "HEAD")
	logging.Debug("Serving %s at %s/", dir, prefix)
}

func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthCheck returns the health status of the service
func (s *Server) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	problems := s.opts.Ready()
	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        len(problems) == 0,
		Version:      config.Version,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		Backend:      s.opts.Backend,
		Problems:     problems,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if !response.Ready {
		response.Status = statusDegraded
	}
	writeJSON(w, http.StatusOK, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (s *Server) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ReadinessCheck returns 200 only when model artifacts and artifact
// directories are in place.
func (s *Server) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if problems := s.opts.Ready(); len(problems) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "not_ready",
			"problems": problems,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Version returns build information.
func (s *Server) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, config.GetBuildInfo())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}
