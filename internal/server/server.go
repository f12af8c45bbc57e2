package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tmrp/users-api/internal/config"
	"github.com/tmrp/users-api/internal/events"
	"github.com/tmrp/users-api/internal/handlers"
	"github.com/tmrp/users-api/internal/metrics"
	authmw "github.com/tmrp/users-api/internal/middleware"
	"github.com/tmrp/users-api/internal/users"
)

// New creates a fully-configured chi router with all route groups,
// middleware, and handlers wired together. m may be nil to skip metrics and
// hub may be nil to run without the change feed.
func New(cfg *config.Config, store *users.Store, hub *events.Hub, m *metrics.Metrics, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// ── Middleware ───────────────────────────────────────────
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(recoverer(log))
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(authmw.RateLimit(authmw.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// ── Handlers ────────────────────────────────────────────
	var opts []handlers.UsersOption
	if cfg.JWTSecret != "" {
		opts = append(opts, handlers.WithWriteGuard(authmw.RequireAuth(cfg.JWTSecret)))
	}
	systemH := handlers.NewSystemHandler(cfg)
	usersH := handlers.NewUsersHandler(store, hub, log, opts...)

	// ── Route groups ────────────────────────────────────────
	systemH.Routes(r)
	if cfg.JWTSecret != "" {
		r.Route("/api/auth", handlers.NewAuthHandler(cfg.JWTSecret).Routes)
	}
	r.Route("/api/users", usersH.Routes)
	if hub != nil {
		r.Route("/ws/users", handlers.NewWSHandler(hub, log).Routes)
	}

	if m != nil {
		m.TrackUsers(store.Len)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	return r
}

// requestLogger logs each HTTP request with method, path, status code,
// duration and request id.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// recoverer turns a handler panic into a logged 500 with a JSON body.
func recoverer(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.Error().
					Interface("panic", rvr).
					Bytes("stack", debug.Stack()).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("handler panic")
				if !websocket.IsWebSocketUpgrade(r) {
					handlers.InternalError(w, r)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
