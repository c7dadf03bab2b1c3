package claims

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/token"
)

// ErrExpired marks an otherwise well-formed payload whose exp lies in the
// past. Kept distinct from FieldError so callers can classify it separately.
var ErrExpired = errors.New("claims: token expired")

// FieldError names the first failing required field. Logged internally;
// callers must keep the outward-facing error generic.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("claims: field %s: %s", e.Field, e.Reason)
}

// Validator enforces the claim schema and temporal validity.
type Validator struct {
	// ExpectedIssuer is matched exactly against iss. No prefix or
	// substring matching.
	ExpectedIssuer string

	Skew ClockSkewPolicy
}

func NewValidator(issuer string, skew ClockSkewPolicy) *Validator {
	return &Validator{ExpectedIssuer: issuer, Skew: skew}
}

// Validate turns raw decoded claims into TrustedClaims or fails with
// ErrExpired / *FieldError.
func (v *Validator) Validate(rc token.RawClaims, now time.Time) (*TrustedClaims, error) {
	email := strings.TrimSpace(strings.ToLower(stringClaim(rc, "email")))
	if email == "" {
		return nil, &FieldError{Field: "email", Reason: "missing"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &FieldError{Field: "email", Reason: "invalid syntax"}
	}

	sub := strings.TrimSpace(stringClaim(rc, "sub"))
	if sub == "" {
		// The minimal wire shape carries no sub; the email is the
		// partner's stable identifier there.
		sub = email
	}

	iss := stringClaim(rc, "iss")
	if iss != v.ExpectedIssuer {
		return nil, &FieldError{Field: "iss", Reason: "issuer mismatch"}
	}

	iat, ok := timeClaim(rc, "iat")
	if !ok {
		return nil, &FieldError{Field: "iat", Reason: "missing or not numeric"}
	}
	exp, ok := timeClaim(rc, "exp")
	if !ok {
		return nil, &FieldError{Field: "exp", Reason: "missing or not numeric"}
	}
	if now.After(exp) && !v.Skew.AllowExpired {
		return nil, ErrExpired
	}

	tc := &TrustedClaims{
		Subject:   sub,
		Email:     email,
		Issuer:    iss,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}

	// Optionals: best effort, wrong types are ignored rather than failing
	// the whole request.
	tc.Name = displayName(rc)
	tc.Phone = stringClaim(rc, "phone")
	tc.Role = stringClaim(rc, "role")
	tc.SessionID = stringClaim(rc, "session_id")
	tc.AppMetadata = mapClaim(rc, "app_metadata")
	tc.UserMetadata = mapClaim(rc, "user_metadata")

	return tc, nil
}

// displayName resolves the best available name: top-level name, then the
// user_metadata full_name / name fields.
func displayName(rc token.RawClaims) string {
	if n := strings.TrimSpace(stringClaim(rc, "name")); n != "" {
		return n
	}
	um := mapClaim(rc, "user_metadata")
	if um == nil {
		return ""
	}
	if n, ok := um["full_name"].(string); ok && strings.TrimSpace(n) != "" {
		return strings.TrimSpace(n)
	}
	if n, ok := um["name"].(string); ok && strings.TrimSpace(n) != "" {
		return strings.TrimSpace(n)
	}
	return ""
}

func stringClaim(rc token.RawClaims, key string) string {
	if v, ok := rc[key].(string); ok {
		return v
	}
	return ""
}

func mapClaim(rc token.RawClaims, key string) map[string]any {
	if v, ok := rc[key].(map[string]any); ok {
		return v
	}
	return nil
}

// timeClaim reads a NumericDate claim in the shapes json decoding produces.
func timeClaim(rc token.RawClaims, key string) (time.Time, bool) {
	switch v := rc[key].(type) {
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	case int64:
		return time.Unix(v, 0).UTC(), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Unix(n, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
