// Package api provides the HTTP API for observing and stimulating the field.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hexfield/internal/engine"
	"github.com/talgya/hexfield/internal/layout"
	"github.com/talgya/hexfield/internal/persistence"
)

const maxStreamConns = 8

// Server serves the field over HTTP. Every read or write of Sim goes
// through Eng.Do so requests never interleave with a tick.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // optional; history endpoints return 503 without it
	Layout   layout.Layout
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	StartedAt      time.Time
	StreamInterval time.Duration // Snapshot cadence for /api/v1/stream

	// StimulusLimiter caps POST /api/v1/stimulus per client. Nil = unlimited.
	StimulusLimiter *RateLimiter

	streamConns chan struct{}
	upgrader    websocket.Upgrader
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	if s.StreamInterval <= 0 {
		s.StreamInterval = 250 * time.Millisecond
	}
	if s.streamConns == nil {
		s.streamConns = make(chan struct{}, maxStreamConns)
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}

	stimulus := s.adminOnly(s.handleStimulus)
	if s.StimulusLimiter != nil {
		stimulus = RateLimitMiddleware(s.StimulusLimiter, stimulus)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/cells", s.handleCells)
	mux.HandleFunc("GET /api/v1/cell/{q}/{r}", s.handleCellDetail)
	mux.HandleFunc("GET /api/v1/region/{q}/{r}", s.handleRegion)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("GET /api/v1/stimuli/history", s.handleStimulusHistory)
	mux.HandleFunc("GET /api/v1/mesh", s.handleMesh)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)
	mux.HandleFunc("GET /api/v1/speed", s.handleSpeed)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("POST /api/v1/stimulus", stimulus)
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no HEXSIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// allowedOrigins are always accepted; CORS_ORIGINS adds more.
var allowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://localhost:3000",
}

func originSet() map[string]bool {
	set := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		set[o] = true
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				set[origin] = true
			}
		}
	}
	return set
}

// originAllowed accepts same-origin requests (no Origin header) and the CORS set.
func (s *Server) originAllowed(origin string) bool {
	return origin == "" || originSet()[origin]
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := originSet()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write json failed", "error", err)
	}
}
