// Package api exposes the chat service over HTTP: the streaming chat
// endpoint, chat deletion, session provisioning, the model catalog, and
// the health probes. All routes except the probes sit behind the shared
// middleware stack.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Agent       turnRunner      // Required: executes chat turns
	Store       transcriptStore // Required: chat transcript persistence
	Pool        *pgxpool.Pool   // Optional: nil disables the database ping in /ready
	HMACSecret  []byte          // Required: 32+ bytes, signs the uid cookie
	CORSOrigins []string        // Allowed origins for CORS
	IsDev       bool            // Enables HTTP cookies (no Secure flag)
	TrustProxy  bool            // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int             // Rate limiter burst size per IP (0 = default 60)
}

// Server is the HTTP server for the chat API.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Agent == nil {
		return nil, errors.New("chat agent is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("transcript store is required")
	}
	if len(cfg.HMACSecret) < 32 {
		return nil, errors.New("hmac secret must be at least 32 bytes")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sm := &sessionManager{
		hmacSecret: cfg.HMACSecret,
		isDev:      cfg.IsDev,
		logger:     logger,
	}

	ch := &chatHandler{
		agent:  cfg.Agent,
		store:  cfg.Store,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/session", sm.provisionSession)
	mux.HandleFunc("GET /api/models", listModels(logger))
	mux.HandleFunc("POST /api/chat", ch.send)
	mux.HandleFunc("DELETE /api/chat", ch.erase)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → Logging → CORS → RateLimit → User → Routes
	// CORS must be before RateLimit so preflight OPTIONS gets proper
	// CORS headers.
	var handler http.Handler = mux
	handler = userMiddleware(sm)(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Top-level mux keeps health probes outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
