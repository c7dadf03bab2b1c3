// Package sso contains the token-exchange orchestration service.
package sso

import (
	"context"
	"fmt"
	"net/http"

	dto "github.com/sinaneshat/billing-dashboard-sub005/internal/http/dto/sso"
)

// ExchangeService runs the full exchange: verify, validate, resolve
// identity, establish session, build redirect.
type ExchangeService interface {
	Exchange(ctx context.Context, r *http.Request, in dto.ExchangeRequest) (*dto.ExchangeResult, error)
}

// Exchange errors. The controller maps these onto the error taxonomy; the
// service never writes HTTP itself.
var (
	ErrMissingToken       = fmt.Errorf("missing token")
	ErrMalformedToken     = fmt.Errorf("malformed token")
	ErrInvalidToken       = fmt.Errorf("invalid token signature")
	ErrTokenExpired       = fmt.Errorf("token expired")
	ErrInvalidPayload     = fmt.Errorf("invalid token payload")
	ErrUserCreationFailed = fmt.Errorf("user creation failed")
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrServerError        = fmt.Errorf("server error")
)
