package sso

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/cache"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/claims"
	svc "github.com/sinaneshat/billing-dashboard-sub005/internal/http/services/sso"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/identity"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/redirect"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/security/credential"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/session"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/store/memory"
	"github.com/sinaneshat/billing-dashboard-sub005/internal/token"
)

const (
	testIssuer = "https://auth.partner.internal"
)

var testHMACSecret = []byte("0123456789abcdef0123456789abcdef")

type fixture struct {
	controller *Controller
	repo       *memory.Repo
	sessions   *session.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.New()
	sessions := session.NewService(cache.NewMemory(""), session.CookieConfig{Name: "sid"}, time.Hour)

	prov := identity.New(repo, sessions, []byte("f5e4d3c2b1a09876f5e4d3c2b1a09876"))
	prov.Argon = credential.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

	service := svc.NewExchangeService(svc.Deps{
		Verifier:    token.NewJWSVerifier(testHMACSecret),
		Validator:   claims.NewValidator(testIssuer, claims.ClockSkewPolicy{}),
		Provisioner: prov,
		Redirects:   redirect.New("", ""),
	})

	return &fixture{
		controller: NewController(service, sessions),
		repo:       repo,
		sessions:   sessions,
	}
}

func signToken(t *testing.T, mut func(jwtv5.MapClaims)) string {
	t.Helper()
	now := time.Now()
	c := jwtv5.MapClaims{
		"sub":   "subj-1",
		"email": "jane@example.test",
		"iss":   testIssuer,
		"name":  "Jane",
		"iat":   now.Add(-time.Minute).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	if mut != nil {
		mut(c)
	}
	s, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c).SignedString(testHMACSecret)
	require.NoError(t, err)
	return s
}

func doExchange(f *fixture, query url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/auth/sso?"+query.Encode(), nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.controller.Exchange(rec, r)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (kind string) {
	t.Helper()
	var body struct {
		Success bool   `json:"success"`
		Kind    string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.False(t, body.Success)
	require.NotEmpty(t, body.Message)
	return body.Kind
}

func TestExchange_HappyPath(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", signToken(t, nil))
	q.Set("product", "premium")
	q.Set("price", "pro")
	q.Set("billing", "yearly")

	rec := doExchange(f, q)
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/dashboard/billing/plans", loc.Path)
	require.Equal(t, "pro", loc.Query().Get("price"))
	require.Equal(t, "yearly", loc.Query().Get("billing"))
	require.Equal(t, "2", loc.Query().Get("step"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)
	require.NotEmpty(t, cookies[0].Value)

	// the session actually resolves
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	userID, ok, err := f.sessions.FromRequest(context.Background(), r)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "subj-1", userID)

	require.Equal(t, 1, f.repo.UserCount())
}

func TestExchange_SessionReuseSkipsStoreAndCookie(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", signToken(t, nil))

	first := doExchange(f, q)
	require.Equal(t, http.StatusFound, first.Code)
	sid := first.Result().Cookies()[0]
	creates := f.repo.CreateCalls

	second := doExchange(f, q, sid)
	require.Equal(t, http.StatusFound, second.Code)
	require.Empty(t, second.Result().Cookies(), "session reuse must not reissue the cookie")
	require.Equal(t, creates, f.repo.CreateCalls, "session reuse must not hit the store")
}

func TestExchange_RepeatWithoutCookieSignsInSameUser(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", signToken(t, nil))

	require.Equal(t, http.StatusFound, doExchange(f, q).Code)
	require.Equal(t, http.StatusFound, doExchange(f, q).Code)
	require.Equal(t, 1, f.repo.UserCount())
}

func TestExchange_MissingToken(t *testing.T) {
	f := newFixture(t)

	rec := doExchange(f, url.Values{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "missing_token", decodeError(t, rec))
}

func TestExchange_MalformedToken(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", "definitely.not")

	rec := doExchange(f, q)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_token", decodeError(t, rec))
}

func TestExchange_BadSignature(t *testing.T) {
	f := newFixture(t)

	forged, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":   "subj-1",
		"email": "jane@example.test",
		"iss":   testIssuer,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("attacker-controlled-secret-value"))
	require.NoError(t, err)

	q := url.Values{}
	q.Set("supabase_jwt", forged)

	rec := doExchange(f, q)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decodeError(t, rec))
}

func TestExchange_ExpiredToken(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", signToken(t, func(c jwtv5.MapClaims) {
		c["exp"] = time.Now().Add(-time.Hour).Unix()
	}))

	rec := doExchange(f, q)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "token_expired", decodeError(t, rec))
}

func TestExchange_IssuerMismatch(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", signToken(t, func(c jwtv5.MapClaims) {
		c["iss"] = "https://somewhere.else"
	}))

	rec := doExchange(f, q)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_payload", decodeError(t, rec))
}

func TestExchange_MissingEmail(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", signToken(t, func(c jwtv5.MapClaims) {
		delete(c, "email")
	}))

	rec := doExchange(f, q)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_payload", decodeError(t, rec))
}

func TestExchange_ReferrerNeverForwarded(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", signToken(t, nil))
	q.Set("referrer", "https://evil.test/?redirect_to=phish")

	rec := doExchange(f, q)
	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	require.NotContains(t, loc, "referrer")
	require.NotContains(t, loc, "evil.test")
}

func TestExchangeForm_RedirectsToGet(t *testing.T) {
	f := newFixture(t)

	form := url.Values{}
	form.Set("supabase_jwt", "tok-value")
	form.Set("price", "pro")

	r := httptest.NewRequest(http.MethodPost, "/auth/sso", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.controller.ExchangeForm(rec, r)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/auth/sso", loc.Path)
	require.Equal(t, "tok-value", loc.Query().Get("supabase_jwt"))
	require.Equal(t, "pro", loc.Query().Get("price"))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	q := url.Values{}
	q.Set("supabase_jwt", signToken(t, nil))
	sid := doExchange(f, q).Result().Cookies()[0]

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(sid)
	rec := httptest.NewRecorder()
	f.controller.Logout(rec, r)

	require.Equal(t, http.StatusNoContent, rec.Code)

	// session is gone
	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(sid)
	_, ok, err := f.sessions.FromRequest(context.Background(), check)
	require.NoError(t, err)
	require.False(t, ok)

	// and the deletion cookie went out
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Empty(t, cookies[0].Value)
}
