// Package session issues and resolves the local authenticated session.
//
// Session ids are opaque random tokens. Only their SHA-256 hash is stored
// (cache key "sess:<hash>" -> user id), so a cache dump never leaks a usable
// cookie value.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/cache"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/security/credential"
)

const keyPrefix = "sess:"

// ErrNoArtifact is returned when a caller tries to attach a missing session.
// Silently answering success without a session artifact would produce an
// unauthenticated-looking success, so this is fatal.
var ErrNoArtifact = errors.New("session: no artifact to attach")

// Session is the artifact handed back after sign-in. ID is the raw cookie
// value; it is never persisted.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// CookieConfig mirrors the auth.session config block.
type CookieConfig struct {
	Name     string
	Domain   string
	SameSite string
	Secure   bool
}

// Service creates, resolves and revokes sessions.
type Service struct {
	cache  cache.Client
	cookie CookieConfig
	ttl    time.Duration
}

func NewService(c cache.Client, cookie CookieConfig, ttl time.Duration) *Service {
	if cookie.Name == "" {
		cookie.Name = "sid"
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{cache: c, cookie: cookie, ttl: ttl}
}

// Create issues a new session for the user.
func (s *Service) Create(ctx context.Context, userID string) (*Session, error) {
	id, err := credential.GenerateOpaque(32)
	if err != nil {
		return nil, err
	}
	key := keyPrefix + credential.SHA256Base64URL(id)
	if err := s.cache.Set(ctx, key, userID, s.ttl); err != nil {
		return nil, err
	}
	return &Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
	}, nil
}

// FromRequest resolves the request's session cookie to a user id.
// ok is false on a missing or unknown cookie; err reports backend failures.
func (s *Service) FromRequest(ctx context.Context, r *http.Request) (userID string, ok bool, err error) {
	ck, cerr := r.Cookie(s.cookie.Name)
	if cerr != nil || ck.Value == "" {
		return "", false, nil
	}
	key := keyPrefix + credential.SHA256Base64URL(ck.Value)
	v, gerr := s.cache.Get(ctx, key)
	if gerr != nil {
		if cache.IsNotFound(gerr) {
			return "", false, nil
		}
		return "", false, gerr
	}
	return v, true, nil
}

// Revoke drops the session referenced by the request cookie, if any.
func (s *Service) Revoke(ctx context.Context, r *http.Request) error {
	ck, err := r.Cookie(s.cookie.Name)
	if err != nil || ck.Value == "" {
		return nil
	}
	return s.cache.Delete(ctx, keyPrefix+credential.SHA256Base64URL(ck.Value))
}

// Attach copies the session artifact onto the outgoing response verbatim.
// No transformation, no re-signing.
func (s *Service) Attach(w http.ResponseWriter, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrNoArtifact
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		ttl = s.ttl
	}
	http.SetCookie(w, buildCookie(s.cookie, sess.ID, ttl))
	return nil
}

// Clear sets the deletion cookie.
func (s *Service) Clear(w http.ResponseWriter) {
	http.SetCookie(w, buildDeletionCookie(s.cookie))
}
