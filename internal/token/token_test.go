package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func signJWS(t *testing.T, secret []byte, claims jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	s, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func signCompact(secret []byte, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func TestJWSVerify_RoundTrip(t *testing.T) {
	v := NewJWSVerifier(testSecret)
	tok := signJWS(t, testSecret, jwtv5.MapClaims{
		"sub":   "user-1",
		"email": "a@b.test",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	rc, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("Verify err: %v", err)
	}
	if rc["sub"] != "user-1" {
		t.Fatalf("sub mismatch: got %v", rc["sub"])
	}
}

func TestJWSVerify_WrongSecret(t *testing.T) {
	v := NewJWSVerifier(testSecret)
	tok := signJWS(t, []byte("another-secret-another-secret!!!"), jwtv5.MapClaims{"sub": "x"})

	if _, err := v.Verify(tok); !errors.Is(err, ErrSignature) {
		t.Fatalf("want ErrSignature, got %v", err)
	}
}

func TestJWSVerify_TamperedPayload(t *testing.T) {
	v := NewJWSVerifier(testSecret)
	tok := signJWS(t, testSecret, jwtv5.MapClaims{"sub": "user-1"})

	// swap the payload for a forged one, keep header+signature
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"admin"}`))
	parts := [3]string{}
	i := 0
	for _, p := range splitDots(tok) {
		parts[i] = p
		i++
	}
	tampered := parts[0] + "." + forged + "." + parts[2]

	if _, err := v.Verify(tampered); !errors.Is(err, ErrSignature) {
		t.Fatalf("want ErrSignature, got %v", err)
	}
}

func TestJWSVerify_RejectsAlgNone(t *testing.T) {
	v := NewJWSVerifier(testSecret)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"admin"}`))
	tok := header + "." + payload + "."

	if _, err := v.Verify(tok); err == nil {
		t.Fatal("alg=none accepted")
	}
}

func TestJWSVerify_WrongPartCount(t *testing.T) {
	v := NewJWSVerifier(testSecret)
	for _, tok := range []string{"", "a", "a.b", "a.b.c.d"} {
		if _, err := v.Verify(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("tok %q: want ErrMalformed, got %v", tok, err)
		}
	}
}

func TestJWSVerify_NeverAcceptsCompactShape(t *testing.T) {
	// A verifier fixed to the three-part shape must not sniff two-part input.
	v := NewJWSVerifier(testSecret)
	tok := signCompact(testSecret, []byte(`{"email":"a@b.test"}`))
	if _, err := v.Verify(tok); !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func TestCompactVerify_RoundTrip(t *testing.T) {
	v := NewCompactVerifier(testSecret)
	tok := signCompact(testSecret, []byte(`{"email":"a@b.test","iat":1,"exp":2}`))

	rc, err := v.Verify(tok)
	if err != nil {
		t.Fatalf("Verify err: %v", err)
	}
	if rc["email"] != "a@b.test" {
		t.Fatalf("email mismatch: got %v", rc["email"])
	}
}

func TestCompactVerify_PaddedSegments(t *testing.T) {
	v := NewCompactVerifier(testSecret)
	payload := []byte(`{"email":"a@b.test"}`)
	mac := hmac.New(sha256.New, testSecret)
	mac.Write(payload)
	tok := base64.URLEncoding.EncodeToString(payload) + "." + base64.URLEncoding.EncodeToString(mac.Sum(nil))

	if _, err := v.Verify(tok); err != nil {
		t.Fatalf("padded segments rejected: %v", err)
	}
}

func TestCompactVerify_TamperedSignature(t *testing.T) {
	v := NewCompactVerifier(testSecret)
	tok := signCompact([]byte("wrong-secret-wrong-secret-wrong!"), []byte(`{"email":"a@b.test"}`))

	if _, err := v.Verify(tok); !errors.Is(err, ErrSignature) {
		t.Fatalf("want ErrSignature, got %v", err)
	}
}

func TestCompactVerify_Malformed(t *testing.T) {
	v := NewCompactVerifier(testSecret)
	for _, tok := range []string{"", "a", ".b", "a.", "a.b.c", "!!.!!"} {
		if _, err := v.Verify(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("tok %q: want ErrMalformed, got %v", tok, err)
		}
	}
}

func TestCompactVerify_NonJSONPayload(t *testing.T) {
	v := NewCompactVerifier(testSecret)
	tok := signCompact(testSecret, []byte("not json"))
	if _, err := v.Verify(tok); !errors.Is(err, ErrMalformed) {
		t.Fatalf("want ErrMalformed, got %v", err)
	}
}

func splitDots(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}
