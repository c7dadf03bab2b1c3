package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/cache"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/claims"
	ssoctrl "github.com/sinaneshat/billing-dashboard-sub005/internal/http/controllers/sso"
	ssosvc "github.com/sinaneshat/billing-dashboard-sub005/internal/http/services/sso"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/identity"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/metrics"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/rate"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/redirect"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/session"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/memory"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/token"
)

func newTestHandler(t *testing.T, limiter rate.Limiter) http.Handler {
	t.Helper()

	repo := memory.New()
	c := cache.NewMemory("")
	sessions := session.NewService(c, session.CookieConfig{Name: "sid"}, time.Hour)

	service := ssosvc.NewExchangeService(ssosvc.Deps{
		Verifier:    token.NewJWSVerifier([]byte("0123456789abcdef0123456789abcdef")),
		Validator:   claims.NewValidator("https://auth.partner.internal", claims.ClockSkewPolicy{}),
		Provisioner: identity.New(repo, sessions, []byte("f5e4d3c2b1a09876f5e4d3c2b1a09876")),
		Redirects:   redirect.New("", ""),
	})

	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		t.Fatalf("metrics: %v", err)
	}

	return New(Deps{
		SSO:      ssoctrl.NewController(service, sessions),
		Store:    repo,
		Cache:    c,
		Limiter:  limiter,
		Registry: registry,
	})
}

func TestRoutes_HealthAndReady(t *testing.T) {
	h := newTestHandler(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "ok") {
			t.Fatalf("%s body: %q", path, rec.Body.String())
		}
	}
}

func TestRoutes_MetricsExposed(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics: got %d", rec.Code)
	}
}

func TestRoutes_MissingTokenEnvelope(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/sso", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"missing_token"`) {
		t.Fatalf("body: %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("no request id header")
	}
}

func TestRoutes_RateLimitAppliesToAuthOnly(t *testing.T) {
	limiter := rate.NewWindowLimiter(cache.NewMemory(""), "rl", 1, time.Minute)
	h := newTestHandler(t, limiter)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/sso", nil))
	if rec.Code == http.StatusTooManyRequests {
		t.Fatalf("first request throttled")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/sso", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request not throttled: %d", rec.Code)
	}

	// probes stay reachable while /auth is throttled
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/healthz throttled: %d", rec.Code)
	}
}

// unreachableStore fails pings; readiness must reflect it.
type unreachableStore struct {
	*memory.Repo
}

func (s *unreachableStore) Ping(ctx context.Context) error {
	return context.DeadlineExceeded
}

func TestRoutes_ReadyzFailsWhenStoreDown(t *testing.T) {
	repo := memory.New()
	c := cache.NewMemory("")
	sessions := session.NewService(c, session.CookieConfig{Name: "sid"}, time.Hour)
	service := ssosvc.NewExchangeService(ssosvc.Deps{
		Verifier:    token.NewJWSVerifier([]byte("0123456789abcdef0123456789abcdef")),
		Validator:   claims.NewValidator("https://auth.partner.internal", claims.ClockSkewPolicy{}),
		Provisioner: identity.New(repo, sessions, []byte("f5e4d3c2b1a09876f5e4d3c2b1a09876")),
		Redirects:   redirect.New("", ""),
	})

	h := New(Deps{
		SSO:   ssoctrl.NewController(service, sessions),
		Store: &unreachableStore{Repo: repo},
		Cache: c,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz with store down: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unreachable") {
		t.Fatalf("body: %q", rec.Body.String())
	}
}
