package graph

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const testUPN = "analyst@contoso.com"

// fakeGraph is a minimal Microsoft Graph and token endpoint
type fakeGraph struct {
	server *httptest.Server

	mu            sync.Mutex
	routes        map[string]http.HandlerFunc
	tokenRequests int
	requests      []string
	lastAuth      string
	lastQuery     string
	lastBody      []byte
}

func newFakeGraph(t *testing.T) *fakeGraph {
	t.Helper()
	f := &fakeGraph{routes: map[string]http.HandlerFunc{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGraph) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	if strings.HasSuffix(r.URL.Path, "/oauth2/v2.0/token") {
		f.tokenRequests++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "app-token", "expires_in": 3600, "token_type": "Bearer"})
		return
	}
	key := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, key)
	f.lastAuth = r.Header.Get("Authorization")
	f.lastQuery = r.URL.RawQuery
	f.lastBody = body
	handler, ok := f.routes[key]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]string{"code": "itemNotFound", "message": "The resource could not be found."}})
		return
	}
	handler(w, r)
}

func (f *fakeGraph) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

func (f *fakeGraph) handleJSON(method, path string, status int, body any) {
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

func (f *fakeGraph) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == key {
			n++
		}
	}
	return n
}

func (f *fakeGraph) connector(cfg Config, clock clockwork.Clock) *Connector {
	if clock == nil {
		clock = clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	return NewConnector(cfg,
		WithBaseURLs(f.server.URL+"/v1.0", f.server.URL),
		WithClock(clock),
		WithLogger(zap.NewNop()),
	)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func oneDriveConfig() Config {
	return Config{
		TenantID:     "tenant",
		ClientID:     "client",
		ClientSecret: "secret",
		OneDrive:     &OneDriveConfig{UserPrincipalName: testUPN},
	}
}

func siteConfig() Config {
	return Config{
		TenantID:     "tenant",
		ClientID:     "client",
		ClientSecret: "secret",
		Site:         &SiteConfig{Hostname: "contoso.sharepoint.com", SitePath: "sites/Team", LibraryName: "Documents"},
	}
}
