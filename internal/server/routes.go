package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	v1 "github.com/valenante/paginaVenta-sub002/internal/api/v1"
	"github.com/valenante/paginaVenta-sub002/internal/api/ws"
	"github.com/valenante/paginaVenta-sub002/internal/config"
)

const healthTimeout = 2 * time.Second

func registerPublicRoutes(api huma.API, cfg *config.Config, deps Deps) {
	v1.RegisterPlanRoutes(api, deps.Catalog)
	v1.RegisterQuoteRoutes(api, deps.Catalog)
	v1.RegisterWizardRoutes(api, v1.WizardDeps{
		Sessions:   deps.Sessions,
		Attempts:   deps.Attempts,
		Controller: deps.Controller,
		Secret:     cfg.Session.Secret,
		SessionTTL: cfg.Session.TTL,
	})
}

func registerOperatorRoutes(api huma.API, deps Deps) {
	v1.RegisterOperatorRoutes(api, deps.Catalog)
}

func registerOperatorWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/operator/provisioning/{precheckoutID}", hub.ServeOperatorWatch)
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// healthHandler pings every component; any failure turns the answer into 503.
func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Components: make(map[string]string, len(names))}
		code := http.StatusOK
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				log.Warn().Err(err).Str("component", name).Msg("health check failed")
				resp.Components[name] = "down"
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
