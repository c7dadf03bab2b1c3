// Package token verifies partner-signed bearer tokens.
//
// Two wire shapes exist behind one interface:
//   - JWS: header.payload.signature (HS256 compact serialization)
//   - Compact: payload.signature (HMAC-SHA-256 over the payload bytes)
//
// The shape is fixed at construction time. Verifiers never inspect token
// contents to pick a mechanism; letting the token choose would allow an
// attacker to force the weaker shape.
package token

import "errors"

// RawClaims is the decoded token payload. It has passed signature
// verification but NOT schema validation; it must go through the claims
// validator before anything trusts it.
type RawClaims map[string]any

// Verifier turns an opaque token string into decoded claims or a typed error.
type Verifier interface {
	Verify(tok string) (RawClaims, error)
}

var (
	// ErrMalformed covers structural deviations: wrong part count,
	// undecodable base64, unparsable JSON. Raised before any HMAC work.
	ErrMalformed = errors.New("token: malformed")

	// ErrSignature means the structure was fine but the MAC did not match.
	ErrSignature = errors.New("token: signature mismatch")
)
