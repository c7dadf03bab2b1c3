// Package health exposes liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/cache"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/observability/logger"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/core"
)

const probeTimeout = 2 * time.Second

type Controller struct {
	store core.Repository
	cache cache.Client
}

func NewController(store core.Repository, c cache.Client) *Controller {
	return &Controller{store: store, cache: c}
}

// Healthz reports process liveness only.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pings the store and the session cache; either failing means the
// service cannot complete an exchange.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	checks := map[string]string{"store": "ok", "cache": "ok"}
	healthy := true

	if err := c.store.Ping(ctx); err != nil {
		logger.From(ctx).Warn("store ping failed", logger.Err(err))
		checks["store"] = "unreachable"
		healthy = false
	}
	if err := c.cache.Ping(ctx); err != nil {
		logger.From(ctx).Warn("cache ping failed", logger.Err(err))
		checks["cache"] = "unreachable"
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeStatus(w, status, checks)
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
