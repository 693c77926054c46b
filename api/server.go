/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RealIP:        Client address behind proxies
  3. RequestLogger: One zap line per request
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. StripSlashes:  "/api/estoque/" and "/api/estoque" route the same
  6. CORS:          Cross-origin requests for the web frontend

ROUTE GROUPS:
  /api/health        Liveness, no authentication
  /api/farm/cultivares  Any authenticated user
  /api/farm/*        Producer only
  /api/estoque/*     Producer only

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Authentication middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/agro-engine/logger"
)

// DefaultCORSOrigins are allowed when RouterOptions.CORSOrigins is empty.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth *Authenticator, opts RouterOptions) *chi.Mux {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = DefaultCORSOrigins
	}
	// A wildcard origin never gets credentials.
	credentials := !slices.Contains(origins, "*")

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: credentials,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			// Catalog is readable by every authenticated role
			r.Get("/farm/cultivares", h.ListCultivars)
			r.Post("/farm/cultivares", h.CreateCultivar)

			r.Group(func(r chi.Router) {
				r.Use(RequireProducer)

				r.Route("/farm/fazendas", func(r chi.Router) {
					r.Get("/", h.ListFarms)
					r.Post("/", h.CreateFarm)
					r.Get("/{id}", h.GetFarm)
					r.Put("/{id}", h.UpdateFarm)
					r.Patch("/{id}", h.UpdateFarm)
					r.Delete("/{id}", h.DeleteFarm)
				})

				r.Route("/farm/cultivos", func(r chi.Router) {
					r.Get("/", h.ListCycles)
					r.Post("/", h.CreateCycle)
					r.Get("/{id}", h.GetCycle)
					r.Put("/{id}", h.UpdateCycle)
					r.Patch("/{id}", h.UpdateCycle)
					r.Delete("/{id}", h.DeleteCycle)
				})

				r.Get("/farm/dashboard", h.Dashboard)

				r.Route("/estoque", func(r chi.Router) {
					r.Get("/", h.StockSummary)
					r.Post("/entrada", h.RecordStockEntry)
					r.Get("/export", h.ExportStock)
				})
			})
		})
	})

	return r
}

// RequestLogger logs method, path, status and latency through log.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
