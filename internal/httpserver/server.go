// internal/httpserver/server.go
//
// HTTP server wiring for the Taboo backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, request log).
//   - Public endpoints: "/", "/health", "/topics", "/daily", "/stats/*".
//   - Session endpoints (session token required): /sessions/{id}/...
//   - Live snapshot stream over websocket: /sessions/{id}/ws.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - A session token is a JWT whose "sid" claim names the one session it may drive.
//   - The websocket route is mounted outside the handler timeout.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mdonmez/taibu/internal/config"
	"github.com/mdonmez/taibu/internal/game"
	"github.com/mdonmez/taibu/internal/history"
	"github.com/mdonmez/taibu/internal/store"
	"github.com/mdonmez/taibu/internal/topics"
)

// Generator produces rounds and hints (generator.Client in production).
type Generator interface {
	game.RoundSource
	game.HintSource
}

// History persists finished rounds and serves stats (history.Store in production).
type History interface {
	game.Recorder
	Topics(ctx context.Context, limit int) ([]history.TopicStats, error)
	Recent(ctx context.Context, sessionID string, limit int) ([]history.Row, error)
}

// Server bundles router, live session registry, generator and round history.
type Server struct {
	r     *chi.Mux
	cfg   config.Config
	store store.Store
	hist  History
	gen   Generator
	clock clockwork.Clock
	now   func() time.Time
}

// Option customises a Server.
type Option func(*Server)

// WithClock sets the clock used for round timers.
func WithClock(c clockwork.Clock) Option { return func(s *Server) { s.clock = c } }

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, st store.Store, hist History, gen Generator, opts ...Option) *Server {
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 60 * time.Second
	}
	if cfg.JWTExpires <= 0 {
		cfg.JWTExpires = 24 * time.Hour
	}
	if cfg.ClientOrigin == "" {
		cfg.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{r: chi.NewRouter(), cfg: cfg, store: st, hist: hist, gen: gen, now: time.Now}
	for _, o := range opts {
		o(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.cors)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.HandlerTimeout)) // bound handler time
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"service":   "taibu",
				"endpoints": []string{"/health", "POST /sessions", "/sessions/{id}/*", "/topics", "/daily", "/stats/*"},
			})
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": s.store.Len(), "topics": topics.Stats()})
		})

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.sessionAuth)
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/round", s.handleStartRound)
			r.Post("/guess", s.handleGuess)
			r.Post("/replay", s.handleReplay)
			r.Post("/notice/dismiss", s.handleDismiss)
		})

		s.mountCatalog(r)
	})

	// Long-lived; not bound by the handler timeout.
	s.r.With(s.sessionAuth).Get("/sessions/{id}/ws", s.handleStream)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one zerolog line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("req_id", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("dur", time.Since(start)).
				Msg("http")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------- responses ---------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps engine and registry errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case game.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrBusy), errors.Is(err, game.ErrWrongScreen):
		return http.StatusConflict
	case game.IsExternal(err):
		return http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound), errors.Is(err, game.ErrClosed):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}
