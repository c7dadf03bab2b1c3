package identity

import (
	"context"
	"errors"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/security/credential"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/core"
)

// SignInStatus is the typed outcome of a sign-in attempt. Callers branch on
// the variant, never on error message text.
type SignInStatus int

const (
	SignInOK SignInStatus = iota

	// SignInNotFound: no account or no credential for the email. The one
	// variant that legitimately triggers account creation.
	SignInNotFound

	// SignInError: anything else (credential mismatch, store outage).
	SignInError
)

// SignInResult carries the variant plus its payload.
type SignInResult struct {
	Status SignInStatus
	User   *core.User
	Err    error
}

func (p *Provisioner) signIn(ctx context.Context, email, derived string) SignInResult {
	u, c, err := p.Store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return SignInResult{Status: SignInNotFound}
		}
		return SignInResult{Status: SignInError, Err: err}
	}

	// An orphaned user (credential row missing) is repaired through the
	// same purge-then-create path as a brand-new subject.
	if c == nil || c.SecretHash == "" {
		return SignInResult{Status: SignInNotFound}
	}

	if !credential.Verify(derived, c.SecretHash) {
		return SignInResult{Status: SignInError, Err: ErrAuthFailed}
	}

	return SignInResult{Status: SignInOK, User: u}
}
