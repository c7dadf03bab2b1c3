package sso

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/claims"
	dto "github.com/sinaneshat/billing-dashboard-sub005/internal/http/dto/sso"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/identity"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/metrics"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/observability/logger"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/redirect"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/token"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/util"
)

// Deps wires the exchange pipeline.
type Deps struct {
	Verifier    token.Verifier
	Validator   *claims.Validator
	Provisioner *identity.Provisioner
	Redirects   redirect.Builder

	// StoreTimeout bounds the identity-resolution phase (store + session
	// backend I/O). Verification and validation are CPU-bound and run
	// unbounded.
	StoreTimeout time.Duration

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

type exchangeService struct {
	deps Deps
}

func NewExchangeService(deps Deps) ExchangeService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.StoreTimeout <= 0 {
		deps.StoreTimeout = 5 * time.Second
	}
	return &exchangeService{deps: deps}
}

// Exchange walks RECEIVED -> VERIFIED -> CLAIMS_VALID -> IDENTITY_RESOLVED
// -> SESSION_ESTABLISHED -> REDIRECTING. An existing session short-circuits
// straight to the redirect. No step is retried here; the only bounded retry
// lives inside the provisioner's sign-in-then-create sequence.
func (s *exchangeService) Exchange(ctx context.Context, r *http.Request, in dto.ExchangeRequest) (*dto.ExchangeResult, error) {
	start := s.deps.Now()
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("sso.exchange"))

	result, err := s.exchange(ctx, r, in, log)

	metrics.ExchangeDuration.Observe(s.deps.Now().Sub(start).Seconds())
	if err != nil {
		metrics.ExchangeTotal.WithLabelValues(errLabel(err)).Inc()
	} else {
		metrics.ExchangeTotal.WithLabelValues("success").Inc()
	}
	return result, err
}

func (s *exchangeService) exchange(ctx context.Context, r *http.Request, in dto.ExchangeRequest, log *zap.Logger) (*dto.ExchangeResult, error) {
	if strings.TrimSpace(in.Token) == "" {
		return nil, ErrMissingToken
	}

	// VERIFIED
	raw, err := s.deps.Verifier.Verify(in.Token)
	if err != nil {
		// which check failed stays in logs only
		log.Debug("token verification failed", logger.Err(err))
		if errors.Is(err, token.ErrSignature) {
			return nil, ErrInvalidToken
		}
		return nil, ErrMalformedToken
	}

	// CLAIMS_VALID
	tc, err := s.deps.Validator.Validate(raw, s.deps.Now())
	if err != nil {
		if errors.Is(err, claims.ErrExpired) {
			log.Info("expired token presented")
			return nil, ErrTokenExpired
		}
		var fe *claims.FieldError
		if errors.As(err, &fe) {
			log.Debug("claim validation failed", logger.String("field", fe.Field), logger.String("reason", fe.Reason))
		}
		return nil, ErrInvalidPayload
	}

	log = log.With(logger.Subject(tc.Subject), logger.Email(util.MaskEmail(tc.Email)))
	if in.Referrer != "" {
		// logged, never forwarded into the redirect
		log = log.With(logger.String("referrer", in.Referrer))
	}

	// IDENTITY_RESOLVED + SESSION_ESTABLISHED, under the store deadline
	storeCtx, cancel := context.WithTimeout(ctx, s.deps.StoreTimeout)
	defer cancel()

	sess, outcome, err := s.deps.Provisioner.Resolve(storeCtx, r, tc)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAuthFailed):
			log.Warn("identity resolution rejected", logger.Err(err))
			return nil, ErrAuthFailed
		case errors.Is(err, identity.ErrCreateFailed):
			log.Error("provisioning failed", logger.Err(err))
			return nil, ErrUserCreationFailed
		default:
			log.Error("identity resolution failed", logger.Err(err))
			return nil, ErrServerError
		}
	}

	reused := outcome == identity.OutcomeSessionReuse
	if !reused {
		if sess == nil {
			// session creation silently failed; a redirect without an
			// artifact would look authenticated while being nothing
			log.Error("no session artifact after resolution")
			return nil, ErrServerError
		}
		metrics.SessionsCreated.Inc()
		if outcome == identity.OutcomeCreated {
			metrics.UsersProvisioned.Inc()
		}
	}

	// REDIRECTING
	url := s.deps.Redirects.Build(redirect.Params{
		Price:    in.Price,
		Billing:  in.Billing,
		Referrer: in.Referrer,
	})

	log.Info("exchange completed", logger.Outcome(string(outcome)))

	return &dto.ExchangeResult{
		RedirectURL:   url,
		Session:       sess,
		SessionReused: reused,
	}, nil
}

func errLabel(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrMalformedToken), errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrUserCreationFailed):
		return "user_creation_failed"
	case errors.Is(err, ErrAuthFailed):
		return "auth_failed"
	default:
		return "server_error"
	}
}
