package token

import (
	"errors"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// JWSVerifier verifies three-part header.payload.signature tokens signed
// with HMAC-SHA-256. The signing method is pinned so a token cannot
// downgrade the algorithm through its own header.
type JWSVerifier struct {
	secret []byte
	parser *jwtv5.Parser
}

// NewJWSVerifier builds a verifier over the shared partner secret.
// Claim validation (expiry, issuer) is done by the claims validator, not
// here, so expired-but-authentic tokens can be classified separately from
// forged ones.
func NewJWSVerifier(secret []byte) *JWSVerifier {
	return &JWSVerifier{
		secret: secret,
		parser: jwtv5.NewParser(
			jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
			jwtv5.WithoutClaimsValidation(),
		),
	}
}

func (v *JWSVerifier) Verify(tok string) (RawClaims, error) {
	tok = strings.TrimSpace(tok)
	if strings.Count(tok, ".") != 2 {
		return nil, ErrMalformed
	}

	claims := jwtv5.MapClaims{}
	_, err := v.parser.ParseWithClaims(tok, claims, func(t *jwtv5.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenSignatureInvalid) {
			return nil, ErrSignature
		}
		return nil, ErrMalformed
	}

	return RawClaims(claims), nil
}
