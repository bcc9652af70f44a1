package startup

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"media-processor/internal/config"
	"media-processor/internal/logging"

	"github.com/gorilla/mux"
)

// RouteInfo describes one registered HTTP route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Mounts registered without a method matcher
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes grouped by first path segment.
// The listing is only produced at debug level.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		g := RouteGroup(route.Path)
		groups[g] = append(groups[g], route)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "" {
			logging.Debug("  [root]")
		} else {
			logging.Debug("  [%s]", k)
		}
		for _, route := range groups[k] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// RouteGroup returns the first segment of a route path.
func RouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	first, _, _ := strings.Cut(path, "/")
	return first
}

// LogModelStatus reports which model artifacts the configured strategy is
// still missing. It returns true when none are missing.
func LogModelStatus(cfg *config.Config, missing []string) bool {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MODELS")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Strategy:   %s", cfg.Strategy)
	logging.Info("  Models dir: %s", cfg.ModelsDir)

	if len(missing) == 0 {
		logging.Info("  [OK] all model artifacts present")
		return true
	}
	for _, m := range missing {
		logging.Warn("  [MISSING] %s", m)
	}
	logging.Warn("  Classification will report unknown until 'mediaproc provision' is run")
	return false
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	ThumbnailsMount string
	ProcessedMount  string
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(sc ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", sc.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Health:        %s", localURL(sc.Port, "/healthz"))
	logging.Info("    Thumbnails:    %s", localURL(sc.Port, sc.ThumbnailsMount+"/"))
	logging.Info("    Processed:     %s", localURL(sc.Port, sc.ProcessedMount+"/"))
	if sc.MetricsEnabled {
		logging.Info("    Metrics:       %s", localURL(sc.Port, "/metrics"))
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

func localURL(port, path string) string {
	return fmt.Sprintf("http://localhost:%s%s", port, path)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}
