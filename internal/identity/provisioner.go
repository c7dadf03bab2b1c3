// Package identity maps trusted claims to an authenticated local session,
// idempotently, tolerating prior partial failures.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/claims"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/observability/logger"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/security/credential"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/session"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/core"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/util"
)

// Outcome names the branch that resolved the identity.
type Outcome string

const (
	// OutcomeSessionReuse: the requester already held a valid session;
	// nothing was provisioned or signed in.
	OutcomeSessionReuse Outcome = "session-reuse"

	// OutcomeSignIn: the derived credential matched an existing account.
	OutcomeSignIn Outcome = "signin"

	// OutcomeCreated: first-time path, the account was created (or the
	// create race was lost) and sign-in succeeded afterwards.
	OutcomeCreated Outcome = "signin-after-create"
)

var (
	// ErrAuthFailed: a credential existed but did not match. Not the
	// first-time path; creating here would shadow real trouble.
	ErrAuthFailed = errors.New("identity: sign-in rejected")

	// ErrCreateFailed wraps failures in the create-then-signin sequence
	// other than the expected not-found branch.
	ErrCreateFailed = errors.New("identity: account creation failed")

	// ErrStore wraps store/session backend failures (retryable).
	ErrStore = errors.New("identity: store unavailable")
)

// Provisioner resolves TrustedClaims to a session.
type Provisioner struct {
	Store            core.Repository
	Sessions         *session.Service
	CredentialSecret []byte
	Argon            credential.Params
}

func New(store core.Repository, sessions *session.Service, credSecret []byte) *Provisioner {
	return &Provisioner{
		Store:            store,
		Sessions:         sessions,
		CredentialSecret: credSecret,
		Argon:            credential.Default,
	}
}

// Resolve walks the provisioning ladder. Each step short-circuits on
// success:
//
//  1. valid session on the request -> no-op success (nil session)
//  2. sign-in with the derived credential
//  3. not found -> purge stale rows, create, sign in again; a unique
//     conflict means another request won the race, so fall back to sign-in
//  4. any other sign-in failure propagates; creation is never attempted
//     so outages are not masked as first-time users
//
// The returned session is nil exactly when outcome is OutcomeSessionReuse:
// the artifact is already on the request and must not be reissued.
func (p *Provisioner) Resolve(ctx context.Context, r *http.Request, tc *claims.TrustedClaims) (*session.Session, Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("identity"),
		logger.Subject(tc.Subject),
	)

	if userID, ok, err := p.Sessions.FromRequest(ctx, r); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStore, err)
	} else if ok {
		log.Info("existing session reused", logger.UserID(userID), logger.Outcome(string(OutcomeSessionReuse)))
		return nil, OutcomeSessionReuse, nil
	}

	derived := credential.Derive(p.CredentialSecret, tc.Subject)

	res := p.signIn(ctx, tc.Email, derived)
	switch res.Status {
	case SignInOK:
		sess, err := p.Sessions.Create(ctx, res.User.ID)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrStore, err)
		}
		log.Info("sign-in succeeded", logger.UserID(res.User.ID), logger.Outcome(string(OutcomeSignIn)))
		return sess, OutcomeSignIn, nil

	case SignInNotFound:
		// expected first-time path
		return p.provision(ctx, tc, derived, log)

	default:
		if res.Err != nil && !errors.Is(res.Err, ErrAuthFailed) {
			return nil, "", fmt.Errorf("%w: %v", ErrStore, res.Err)
		}
		log.Warn("sign-in rejected for existing credential")
		return nil, "", ErrAuthFailed
	}
}

func (p *Provisioner) provision(ctx context.Context, tc *claims.TrustedClaims, derived string, log *zap.Logger) (*session.Session, Outcome, error) {
	// Clean up remnants of a previously interrupted attempt before
	// creating. A user row without its credential is corrupt state.
	if err := p.Store.PurgeSubject(ctx, tc.Subject, tc.Email); err != nil {
		return nil, "", fmt.Errorf("%w: purge: %v", ErrCreateFailed, err)
	}

	hash, err := credential.Hash(p.Argon, derived)
	if err != nil {
		return nil, "", fmt.Errorf("%w: hash: %v", ErrCreateFailed, err)
	}

	u := &core.User{
		ID:    tc.Subject,
		Email: tc.Email,
		Name:  resolveDisplayName(tc),
	}

	switch err := p.Store.CreateUserWithCredential(ctx, u, hash); {
	case err == nil:
		log.Info("account created", logger.Email(util.MaskEmail(tc.Email)))
	case errors.Is(err, core.ErrConflict):
		// lost the create race; the winner's rows serve both requests
		log.Info("create conflict, falling back to sign-in")
	default:
		return nil, "", fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	res := p.signIn(ctx, tc.Email, derived)
	if res.Status != SignInOK {
		if res.Err != nil {
			return nil, "", fmt.Errorf("%w: post-create sign-in: %v", ErrCreateFailed, res.Err)
		}
		return nil, "", fmt.Errorf("%w: post-create sign-in rejected", ErrCreateFailed)
	}

	sess, err := p.Sessions.Create(ctx, res.User.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStore, err)
	}
	log.Info("sign-in after create succeeded", logger.UserID(res.User.ID), logger.Outcome(string(OutcomeCreated)))
	return sess, OutcomeCreated, nil
}

// resolveDisplayName falls back from the claim name to the email local part,
// then to a generic placeholder.
func resolveDisplayName(tc *claims.TrustedClaims) string {
	if n := strings.TrimSpace(tc.Name); n != "" {
		return n
	}
	if i := strings.IndexByte(tc.Email, '@'); i > 0 {
		return tc.Email[:i]
	}
	return "Member"
}
