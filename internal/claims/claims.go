// Package claims validates decoded token payloads independently of how the
// signature was checked.
package claims

import "time"

// TrustedClaims is the validated payload. A value of this type exists only
// after signature verification, schema validation and the expiry check have
// all passed; it is never built from unverified input.
type TrustedClaims struct {
	Subject   string
	Email     string
	Issuer    string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Optional provider metadata. Present when the partner sent it,
	// dropped silently when malformed.
	Phone        string
	Role         string
	SessionID    string
	AppMetadata  map[string]any
	UserMetadata map[string]any
}

// ClockSkewPolicy controls temporal strictness. AllowExpired exists for
// development fixtures only; config refuses to set it in prod.
type ClockSkewPolicy struct {
	AllowExpired bool
}
