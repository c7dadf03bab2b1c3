// Package sso contains the transport layer of the token-exchange endpoint.
package sso

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/http/helpers"
	svc "github.com/sinaneshat/billing-dashboard-sub005/internal/http/services/sso"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/observability/logger"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/session"

	dto "github.com/sinaneshat/billing-dashboard-sub005/internal/http/dto/sso"
)

const maxFormBodySize = 64 * 1024 // 64KB

// tokenParam is the query/form field carrying the partner token.
const tokenParam = "supabase_jwt"

// Controller handles /auth/sso.
type Controller struct {
	service  svc.ExchangeService
	sessions *session.Service
}

func NewController(service svc.ExchangeService, sessions *session.Service) *Controller {
	return &Controller{service: service, sessions: sessions}
}

// Exchange handles GET /auth/sso.
func (c *Controller) Exchange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("sso.Exchange"))

	q := r.URL.Query()
	req := dto.ExchangeRequest{
		Token:    q.Get(tokenParam),
		Product:  q.Get("product"),
		Price:    q.Get("price"),
		Billing:  q.Get("billing"),
		Referrer: q.Get("referrer"),
	}

	result, err := c.service.Exchange(ctx, r, req)
	if err != nil {
		log.Debug("exchange failed", logger.Err(err))
		writeExchangeError(w, err)
		return
	}

	if !result.SessionReused {
		if err := c.sessions.Attach(w, result.Session); err != nil {
			log.Error("failed to attach session", logger.Err(err))
			helpers.WriteError(w, helpers.ErrServerError)
			return
		}
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// ExchangeForm handles POST /auth/sso. Compatibility shim only: it
// re-encodes the form body into the GET query string and redirects; no
// verification happens here.
func (c *Controller) ExchangeForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		helpers.WriteError(w, helpers.ErrMalformedToken)
		return
	}

	q := url.Values{}
	for _, key := range []string{tokenParam, "product", "price", "billing", "referrer"} {
		if v := r.PostFormValue(key); v != "" {
			q.Set(key, v)
		}
	}

	http.Redirect(w, r, r.URL.Path+"?"+q.Encode(), http.StatusFound)
}

// Logout handles POST /auth/logout: revokes the cache-held session and
// clears the cookie.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := c.sessions.Revoke(ctx, r); err != nil {
		logger.From(ctx).Warn("session revoke failed", logger.Err(err))
		helpers.WriteError(w, helpers.ErrServerError)
		return
	}
	c.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func writeExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingToken):
		helpers.WriteError(w, helpers.ErrMissingToken)
	case errors.Is(err, svc.ErrMalformedToken):
		helpers.WriteError(w, helpers.ErrMalformedToken)
	case errors.Is(err, svc.ErrInvalidToken):
		helpers.WriteError(w, helpers.ErrInvalidToken)
	case errors.Is(err, svc.ErrTokenExpired):
		helpers.WriteError(w, helpers.ErrTokenExpired)
	case errors.Is(err, svc.ErrInvalidPayload):
		helpers.WriteError(w, helpers.ErrInvalidPayload)
	case errors.Is(err, svc.ErrUserCreationFailed):
		helpers.WriteError(w, helpers.ErrUserCreationFailed)
	case errors.Is(err, svc.ErrAuthFailed):
		helpers.WriteError(w, helpers.ErrAuthFailed)
	default:
		helpers.WriteError(w, helpers.ErrServerError)
	}
}
