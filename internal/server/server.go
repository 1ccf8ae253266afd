// Package server exposes the anonymizer over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloakward-ai/cloakward/internal/audit"
	"github.com/cloakward-ai/cloakward/internal/auth"
	"github.com/cloakward-ai/cloakward/internal/provider"
	"github.com/cloakward-ai/cloakward/internal/redact"
	"github.com/cloakward-ai/cloakward/internal/store"
	"github.com/cloakward-ai/cloakward/internal/telemetry"
	"github.com/cloakward-ai/cloakward/internal/transform"
)

// maxRequestBytes caps the size of request bodies.
const maxRequestBytes = 1 << 20

// Server wraps the HTTP components for Cloakward.
type Server struct {
	mux       *http.ServeMux
	engine    *transform.Engine
	store     *store.Store
	provider  provider.Provider
	auth      *auth.Auth
	audit     *audit.Emitter
	telemetry *telemetry.Provider
}

// Options collects the collaborators a Server needs. Store, Provider, Audit,
// and Telemetry may be nil; the matching features degrade gracefully.
type Options struct {
	Engine    *transform.Engine
	Store     *store.Store
	Provider  provider.Provider
	Auth      *auth.Auth
	Audit     *audit.Emitter
	Telemetry *telemetry.Provider
}

// New creates a Cloakward server with all routes registered.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("server requires a transform engine")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		engine:    opts.Engine,
		store:     opts.Store,
		provider:  opts.Provider,
		auth:      opts.Auth,
		audit:     opts.Audit,
		telemetry: opts.Telemetry,
	}

	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/anonymize", s.requireAuth(s.handleAnonymize))
	s.mux.HandleFunc("/api/deanonymize", s.requireAuth(s.handleDeanonymize))
	s.mux.HandleFunc("/api/preview", s.requireAuth(s.handlePreview))
	s.mux.HandleFunc("/api/stats", s.requireAuth(s.handleStats))
	s.mux.HandleFunc("/api/clear-mappings", s.requireAuth(s.handleClearMappings))

	return s, nil
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the HTTP server on addr.
func (s *Server) Start(addr string) error {
	redact.Logf("Cloakward API running on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status string `json:"status"`
		LLM    string `json:"llm"`
		Store  string `json:"store"`
	}{Status: "ok", LLM: "disabled", Store: "disabled"}
	if s.provider != nil {
		resp.LLM = "enabled"
	}
	if s.store != nil {
		resp.Store = "ok"
		if _, err := s.store.Count(); err != nil {
			resp.Store = "unavailable"
			resp.Status = "degraded"
		}
	}
	writeJSON(w, resp)
}

// requireAuth checks the client API key when auth is enabled. Keys arrive as
// either "Authorization: Bearer <key>" or "X-API-Key: <key>".
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth.Enabled() {
			key, _ := parseBearerToken(r.Header.Get("Authorization"))
			if key == "" {
				key = r.Header.Get("X-API-Key")
			}
			if !s.auth.Allow(key) {
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
		}
		next(w, r)
	}
}

// parseBearerToken extracts the token from an Authorization: Bearer header.
func parseBearerToken(h string) (string, bool) {
	if h == "" {
		return "", false
	}
	parts := strings.Fields(h)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		redact.Logf("failed to write response: %v", err)
	}
}

// decodeJSON reads a size-capped JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) emitAudit(ev *audit.Event) {
	if s.audit == nil || ev == nil {
		return
	}
	s.audit.Emit(context.Background(), ev)
}

func (s *Server) storedMappings() (map[string]string, error) {
	if s.store == nil {
		return map[string]string{}, nil
	}
	return s.store.Load()
}
