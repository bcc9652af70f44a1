package startup

import (
	"net/http"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
)

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", noop).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/livez", noop).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix("/processed/").HandlerFunc(noop)

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	want := []RouteInfo{
		{Method: "GET", Path: "/healthz", Name: "health"},
		{Method: "GET", Path: "/livez"},
		{Method: "HEAD", Path: "/livez"},
		{Method: "*", Path: "/processed/"},
	}
	if diff := cmp.Diff(want, routes); diff != "" {
		t.Errorf("GetRoutes() mismatch (-want +got):\n%s", diff)
	}
}

func TestRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "healthz"},
		{"/processed/", "processed"},
		{"/thumbnails/thumb_a.jpg", "thumbnails"},
		{"/", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := RouteGroup(tt.path); got != tt.want {
			t.Errorf("RouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLocalURL(t *testing.T) {
	tests := []struct {
		port, path, want string
	}{
		{"8080", "/processed/", "http://localhost:8080/processed/"},
		{"9000", "/metrics", "http://localhost:9000/metrics"},
	}
	for _, tt := range tests {
		if got := localURL(tt.port, tt.path); got != tt.want {
			t.Errorf("localURL(%q, %q) = %q, want %q", tt.port, tt.path, got, tt.want)
		}
	}
}
