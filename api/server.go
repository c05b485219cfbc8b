/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog line per request, tagged with the request ID
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the roster frontend

RATE LIMITING:
  Request submission is limited per employee (httprate, sliding window of
  one minute). Every other route is unlimited.

ROUTE GROUPS:
  /api/employees/*      Roster, balances, history, submission, queues
  /api/requests/*       Request details and decisions
  /healthz              Liveness and store reachability

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/santamargarita/leave-engine/logger"
)

// Options tunes the router. Zero values disable CORS origins and the
// submission rate limit.
type Options struct {
	CORSOrigins     []string
	SubmitRateLimit int
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: !allowsAnyOrigin(opts.CORSOrigins),
			MaxAge:           300,
		}))
	}

	var submitHandler http.Handler = http.HandlerFunc(h.SubmitRequest)
	if opts.SubmitRateLimit > 0 {
		submitHandler = submitLimiter(opts.SubmitRateLimit)(submitHandler)
	}

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}/authorizations", h.SetAuthorizations)
			r.Post("/{id}/adjustments", h.CreateAdjustment)
			r.Get("/{id}/balances", h.GetBalances)
			r.Get("/{id}/movements", h.ListMovements)
			r.Get("/{id}/requests", h.ListEmployeeRequests)
			r.Method(http.MethodPost, "/{id}/requests", submitHandler)
			r.Get("/{id}/queue", h.ListQueue)
		})

		// Request routes
		r.Route("/requests", func(r chi.Router) {
			r.Get("/{id}", h.GetRequest)
			r.Post("/{id}/decision", h.Decide)
		})
	})

	return r
}

// allowsAnyOrigin reports a wildcard origin list. Credentials are never
// sent to arbitrary origins.
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// submitLimiter caps submissions per employee per minute.
func submitLimiter(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(submitRateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "Too many submissions, try again shortly", nil)
		}),
	)
}

func submitRateKey(r *http.Request) (string, error) {
	if id := chi.URLParam(r, "id"); id != "" {
		return "employee:" + id, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

// requestLogger attaches a request-scoped zerolog logger to the context
// and logs one line per request once the handler returns.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		r = r.WithContext(ctx)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		requestLog(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
