// Package serve exposes the persona registry over HTTP+JSON with an
// SSE event feed and problem+json error responses.
package serve

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jllopis/ethos/pkg/delegation"
	"github.com/jllopis/ethos/pkg/errors"
	"github.com/jllopis/ethos/pkg/health"
	"github.com/jllopis/ethos/pkg/index"
	"github.com/jllopis/ethos/pkg/registry"
	"github.com/jllopis/ethos/pkg/telemetry"
)

// Suggester answers similarity queries. Nil when no index is wired;
// the suggest endpoint then answers 501.
type Suggester interface {
	Suggest(ctx context.Context, text string, limit int) ([]index.Suggestion, error)
}

// Server routes registry requests. Paths are matched on segments, the
// way a small fixed API wants to be routed.
type Server struct {
	store     *registry.Store
	suggester Suggester
	healthz   *health.Provider
	authToken string
	version   string
	logger    *slog.Logger
	metrics   *telemetry.Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithSuggester wires the similarity index.
func WithSuggester(s Suggester) Option {
	return func(srv *Server) { srv.suggester = s }
}

// WithHealthProvider wires aggregated health checks.
func WithHealthProvider(p *health.Provider) Option {
	return func(srv *Server) { srv.healthz = p }
}

// WithAuthToken enables static bearer-token auth on every endpoint
// except /healthz.
func WithAuthToken(token string) Option {
	return func(srv *Server) { srv.authToken = token }
}

// WithVersion sets the version reported in the registry card.
func WithVersion(version string) Option {
	return func(srv *Server) { srv.version = version }
}

// WithServerLogger sets the request logger.
func WithServerLogger(logger *slog.Logger) Option {
	return func(srv *Server) { srv.logger = logger }
}

// WithMetrics records a request counter per route and status. Nil
// metrics disable recording.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// New creates a server over a registry store.
func New(store *registry.Store, opts ...Option) *Server {
	srv := &Server{
		store:   store,
		version: "dev",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	segments := normalizePath(r.URL.Path)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, routeLabel(segments), rec.status)
	}()
	w = rec

	if len(segments) == 0 {
		http.NotFound(w, r)
		return
	}

	if segments[0] != "healthz" && !s.authorized(r) {
		writeError(w, errors.New(errors.CodeUnauthorized, "missing or invalid bearer token", nil))
		return
	}

	switch segments[0] {
	case "personas":
		s.handlePersonas(w, r, segments)
	case "graph":
		s.requireGet(w, r, func() { s.handleGraph(w, r) })
	case "suggest":
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		s.handleSuggest(w, r)
	case "events":
		s.requireGet(w, r, func() { s.handleEvents(w, r) })
	case "healthz":
		s.requireGet(w, r, func() { s.handleHealthz(w, r) })
	case ".well-known":
		if len(segments) == 2 && segments[1] == "persona-registry.json" {
			s.requireGet(w, r, func() { s.handleCard(w, r) })
			return
		}
		http.NotFound(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) requireGet(w http.ResponseWriter, r *http.Request, handler func()) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	handler()
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	return found && token == s.authToken
}

// snapshot returns the live registry or a NOT_FOUND-style error before
// the first load.
func (s *Server) snapshot() (*registry.Registry, error) {
	reg := s.store.Current()
	if reg == nil {
		return nil, errors.New(errors.CodeInternal, "registry not loaded", nil)
	}
	return reg, nil
}

func (s *Server) handlePersonas(w http.ResponseWriter, r *http.Request, segments []string) {
	switch {
	case len(segments) == 1:
		s.requireGet(w, r, func() { s.handleList(w, r) })
	case len(segments) == 2:
		s.requireGet(w, r, func() { s.handleGet(w, r, segments[1]) })
	case len(segments) == 3 && segments[2] == "delegations":
		s.requireGet(w, r, func() { s.handleDelegations(w, r, segments[1]) })
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	reg, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	graph := delegation.Build(reg)
	content, err := graph.Export(format)
	if err != nil {
		writeError(w, err)
		return
	}
	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	_, _ = w.Write([]byte(content))
}

type suggestRequest struct {
	Text  string `json:"text"`
	Limit int    `json:"limit"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if s.suggester == nil {
		writeProblem(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "similarity index not configured")
		return
	}
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.New(errors.CodeInvalidInput, "invalid request body", err))
		return
	}
	suggestions, err := s.suggester.Suggest(r.Context(), req.Text, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"suggestions": suggestions})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.healthz == nil {
		writeJSON(w, map[string]any{"status": health.StatusHealthy})
		return
	}
	results, overall := s.healthz.CheckAll(r.Context())
	code := http.StatusOK
	if overall == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":     overall,
		"components": results,
	})
}

func (s *Server) handleCard(w http.ResponseWriter, _ *http.Request) {
	reg, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"name":        "ethos",
		"version":     s.version,
		"personas":    reg.Len(),
		"fingerprint": reg.Fingerprint(),
		"endpoints": []string{
			"/personas", "/personas/{id}", "/personas/{id}/delegations",
			"/graph", "/suggest", "/events", "/healthz",
		},
	})
}

// statusRecorder captures the response status for request metrics. It
// forwards Flush so SSE streaming keeps working through the wrapper.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// routeLabel maps a request path onto its route template so the metric
// stays low-cardinality whatever ids clients ask for.
func routeLabel(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	switch segments[0] {
	case "personas":
		switch len(segments) {
		case 1:
			return "/personas"
		case 2:
			return "/personas/{id}"
		default:
			return "/personas/{id}/delegations"
		}
	case ".well-known":
		return "/.well-known/persona-registry.json"
	default:
		return "/" + segments[0]
	}
}

func normalizePath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	ee := errors.AsEthosError(err)
	writeProblem(w, ee.StatusCode, string(ee.Code), ee.Message)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "about:blank",
		"title":  title,
		"detail": detail,
		"status": status,
	})
}

func parseIntQuery(r *http.Request, key string) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}
