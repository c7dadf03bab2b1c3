// Package credential derives and stores the machine credentials used to
// sign users in after token exchange.
package credential

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// derivationPrefix versions the derivation so the scheme can rotate without
// colliding with old credentials.
const derivationPrefix = "sso:v1:"

// Derive returns the deterministic, non-guessable sign-in credential for a
// subject id: base64url(HMAC-SHA-256(secret, "sso:v1:"+subject)). The secret
// is server-side; nothing user-supplied alone can reproduce the value.
func Derive(secret []byte, subject string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(derivationPrefix + subject))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// GenerateOpaque returns a random opaque token (base64url, no padding).
func GenerateOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL hashes a value for storage lookups (session ids are never
// persisted raw).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
