// internal/httpserver/server.go
//
// HTTP server wiring for the word duel.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game endpoints, scoped to the calling device: see routes_game.go.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the device cookie works).
//   - Each device gets its own record key and its own phase.Controller.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/phase"
	"github.com/robalobadob/wordduel/internal/store"
	"github.com/robalobadob/wordduel/internal/validate"
	"github.com/robalobadob/wordduel/internal/words"
)

// Options configures a Server.
type Options struct {
	Slot         store.Slot
	Rule         validate.Rule
	Words        *words.List // optional; only reported by /debug/words
	StateKey     string      // record key prefix; the device id is appended
	JWTSecret    string
	CookieName   string
	ClientOrigin string
	Secure       bool // production cookies (Secure, SameSite=None)
}

// Server bundles router, record slot and per-device controllers.
type Server struct {
	r    *chi.Mux
	opts Options

	mu          sync.Mutex              // guards controllers
	controllers map[string]*deviceEntry // keyed by device id
	now         func() time.Time
}

// deviceEntry is a cached controller and when it was last used.
type deviceEntry struct {
	c    *phase.Controller
	used time.Time
}

// deviceIdleTTL is how long an untouched device controller stays cached.
const deviceIdleTTL = 30 * time.Minute

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.StateKey == "" {
		opts.StateKey = store.DefaultKey
	}
	if opts.CookieName == "" {
		opts.CookieName = "wordduel_device"
	}
	if opts.Rule == nil {
		opts.Rule = validate.AcceptAll{}
	}
	s := &Server{
		r:           chi.NewRouter(),
		opts:        opts,
		controllers: make(map[string]*deviceEntry),
		now:         time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(accessLog)                       // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))         // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordduel","endpoints":["/health","GET /state","POST /start","POST /choose-word/{userId}","POST /guess/{userId}","POST /reset"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]int{"words": s.opts.Words.Len()})
	})

	s.mountGame(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// controllerFor returns the device's controller.
// Only writers (keep == true) get cached; readers of an unknown device get a
// throwaway controller so cookieless traffic leaves nothing behind. Cached
// entries idle for longer than deviceIdleTTL are dropped on the next insert.
func (s *Server) controllerFor(r *http.Request, deviceID string, keep bool) *phase.Controller {
	now := s.now()
	s.mu.Lock()
	if e, ok := s.controllers[deviceID]; ok {
		e.used = now
		s.mu.Unlock()
		return e.c
	}
	s.mu.Unlock()

	st := store.Open(r.Context(), s.opts.Slot, s.opts.StateKey+":"+deviceID)
	c := phase.New(st, s.opts.Rule, navLogger)
	if !keep {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.controllers[deviceID]; ok {
		e.used = now
		return e.c
	}
	s.sweepLocked(now)
	s.controllers[deviceID] = &deviceEntry{c: c, used: now}
	return c
}

// sweepLocked drops idle controllers. s.mu must be held.
func (s *Server) sweepLocked(now time.Time) {
	for id, e := range s.controllers {
		if now.Sub(e.used) > deviceIdleTTL {
			delete(s.controllers, id)
		}
	}
}

// navLogger records navigation on the request logger.
var navLogger = phase.NavigatorFunc(func(ctx context.Context, to phase.Phase) {
	zerolog.Ctx(ctx).Debug().Str("route", to.Route()).Msg("navigate")
})

// ----------------------------- middleware ----------------------------------

// accessLog writes one structured line per request.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("request")
})

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", deviceTokenHeader)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes a JSON error body: {"error":"code"}.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
