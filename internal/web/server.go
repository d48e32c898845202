package web

import (
	"errors"
	"net/http"

	"github.com/easelhq/easel/internal/log"
	"github.com/easelhq/easel/internal/pipeline"
	"github.com/easelhq/easel/internal/preview"
	"github.com/easelhq/easel/internal/web/static"
)

// ServerConfig contains configuration for creating the web server.
type ServerConfig struct {
	Logger   log.Logger
	Pipeline *pipeline.Pipeline // Required
	Frame    *preview.Frame     // Required: the surface the pipeline renders into
	Streamer Streamer           // Required: produces one model stream per prompt

	CORSOrigins []string // Allowed origins for CORS
	TrustProxy  bool     // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateLimit   float64  // Sustained requests/second per client IP (0 = default 5)
	RateBurst   int      // Rate limiter burst size per IP (0 = default 10)
}

// Server is the easel HTTP server: embedded UI, JSON API and the SSE
// generation stream.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a web server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if cfg.Frame == nil {
		return nil, errors.New("preview frame is required")
	}
	if cfg.Streamer == nil {
		return nil, errors.New("streamer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	gh := &generateHandler{
		pipe:     cfg.Pipeline,
		frame:    cfg.Frame,
		streamer: cfg.Streamer,
		logger:   logger,
	}
	th := &transcriptHandler{pipe: cfg.Pipeline, logger: logger}
	ph := &previewHandler{frame: cfg.Frame, logger: logger}

	mux := http.NewServeMux()

	// Embedded UI
	mux.HandleFunc("GET /{$}", static.Index)
	mux.Handle("GET /static/", http.StripPrefix("/static/", static.Handler()))

	// API
	mux.HandleFunc("POST /api/generate", gh.generate)
	mux.HandleFunc("GET /api/transcript", th.list)
	mux.HandleFunc("GET /api/preview", ph.current)
	mux.HandleFunc("POST /api/reset", th.reset)

	// Rate limiter: per-IP token bucket
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 5.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}
	rl := newRateLimiter(limit, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Wrap with security headers
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Use a top-level mux to separate health probes from the middleware
	// stack: load balancers are never rate limited or logged per request.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /healthz", health)
	topMux.HandleFunc("GET /readyz", readiness)
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
