// Package router aggregates the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/cache"
	healthctrl "github.com/sinaneshat/billing-dashboard-sub005/internal/http/controllers/health"
	ssoctrl "github.com/sinaneshat/billing-dashboard-sub005/internal/http/controllers/sso"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/http/middlewares"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/rate"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/core"
)

// Deps contains everything the router mounts.
type Deps struct {
	SSO   *ssoctrl.Controller
	Store core.Repository
	Cache cache.Client

	// Limiter throttles /auth/sso when non-nil.
	Limiter rate.Limiter

	// Registry backs /metrics. Falls back to the default registry when nil.
	Registry *prometheus.Registry
}

// New builds the full handler tree.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())

	r.Route("/auth", func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(middlewares.WithRateLimit(deps.Limiter))
		}
		r.Get("/sso", deps.SSO.Exchange)
		r.Post("/sso", deps.SSO.ExchangeForm)
		r.Post("/logout", deps.SSO.Logout)
	})

	health := healthctrl.NewController(deps.Store, deps.Cache)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}
