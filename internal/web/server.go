package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/quickcloset/internal/service"
)

// pinger is satisfied by *sql.DB.
type pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string
	// MaxBodyBytes caps every request body.
	MaxBodyBytes int64
}

type Server struct {
	service *service.WardrobeService
	db      pinger
	opts    Options
	mux     *http.ServeMux
	logger  *slog.Logger
}

func NewServer(svc *service.WardrobeService, db pinger, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		service: svc,
		db:      db,
		opts:    opts,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /tables/wardrobe_items", s.handleListItems)
	s.mux.HandleFunc("POST /tables/wardrobe_items", s.handleCreateItem)
	s.mux.HandleFunc("POST /tables/wardrobe_items/suggest", s.handleSuggest)
	s.mux.HandleFunc("GET /tables/wardrobe_items/{id}", s.handleGetItem)
	s.mux.HandleFunc("PUT /tables/wardrobe_items/{id}", s.handleUpdateItem)
	s.mux.HandleFunc("DELETE /tables/wardrobe_items/{id}", s.handleDeleteItem)
	s.mux.HandleFunc("GET /tables/wardrobe_items/{id}/image", s.handleGetImage)

	s.mux.HandleFunc("GET /tables/saved_outfits", s.handleListOutfits)
	s.mux.HandleFunc("POST /tables/saved_outfits", s.handleCreateOutfit)
	s.mux.HandleFunc("GET /tables/saved_outfits/{id}", s.handleGetOutfit)
	s.mux.HandleFunc("DELETE /tables/saved_outfits/{id}", s.handleDeleteOutfit)
	s.mux.HandleFunc("GET /tables/saved_outfits/{id}/resolved", s.handleResolveOutfit)

	s.mux.HandleFunc("GET /outfits/random", s.handleRandomOutfit)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// securityHeaders sets the hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// cors answers preflight requests and tags every response with the
// configured origin.
func cors(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody caps request bodies. Reads past the limit fail and the decoder
// reports them as a 413.
func limitBody(limit int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(cors(s.opts.CORSOrigin, limitBody(s.opts.MaxBodyBytes, s.mux)))).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		jsonError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
