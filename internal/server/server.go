package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/valenante/paginaVenta-sub002/internal/api/v1"
	"github.com/valenante/paginaVenta-sub002/internal/api/ws"
	"github.com/valenante/paginaVenta-sub002/internal/config"
	"github.com/valenante/paginaVenta-sub002/internal/server/middleware"
	"github.com/valenante/paginaVenta-sub002/internal/wizard"
)

// Pinger is a dependency probed by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds the collaborators the routes are wired to.
type Deps struct {
	Sessions   v1.SessionStore
	Attempts   v1.AttemptStore
	Catalog    wizard.PlanCatalog
	Controller *wizard.Controller
	Hub        *ws.Hub
	// Health maps a component name to its probe.
	Health map[string]Pinger
	// Assets is the built storefront. Nil disables SPA serving.
	Assets fs.FS
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds the background
// sweepers of the rate limiters.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", v1.WizardTokenHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	rps := float64(cfg.Server.RateLimitRPS)
	burst := cfg.Server.RateLimitBurst

	// Mount API routes on /api/v1 with two sub-groups:
	// 1. Public storefront group (wizard, plans, quotes).
	// 2. Operator group for the sales team.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, rps, burst))

			apiConfig := huma.DefaultConfig("paginaVenta Checkout API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerPublicRoutes(api, cfg, deps)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperator(cfg.Session.Secret))
			r.Use(middleware.RateLimitByOperator(ctx, rps, burst))

			opConfig := huma.DefaultConfig("paginaVenta Operator API", "1.0.0")
			opConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			opConfig.OpenAPIPath = "/operator/openapi"
			opConfig.DocsPath = "/operator/docs"
			opConfig.SchemasPath = "/operator/schemas"
			api := humachi.New(r, opConfig)
			registerOperatorRoutes(api, deps)
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.With(middleware.RateLimitByIP(ctx, rps, burst)).Get("/provisioning", deps.Hub.ServeProvisioning)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireOperator(cfg.Session.Secret))
			registerOperatorWSRoutes(r, deps.Hub)
		})
	})

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthHandler(deps.Health))

	// Serve the storefront on all unmatched routes.
	// This must be the last route registered so API/WS routes take priority.
	if deps.Assets != nil {
		router.NotFound(spaFileServer(deps.Assets).ServeHTTP)
		log.Info().Msg("storefront assets enabled")
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
