package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sinaneshat/billing-dashboard-sub005/internal/cache"
)

func newTestService() *Service {
	return NewService(cache.NewMemory(""), CookieConfig{Name: "sid"}, time.Hour)
}

func TestCreateAttachResolve(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	sess, err := s.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if sess.ID == "" || sess.UserID != "user-1" {
		t.Fatalf("bad session: %+v", sess)
	}

	rec := httptest.NewRecorder()
	if err := s.Attach(rec, sess); err != nil {
		t.Fatalf("Attach err: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || cookies[0].Value != sess.ID {
		t.Fatalf("cookie not attached verbatim: %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("cookie not HttpOnly")
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	userID, ok, err := s.FromRequest(ctx, r)
	if err != nil || !ok || userID != "user-1" {
		t.Fatalf("FromRequest: %q %v %v", userID, ok, err)
	}
}

func TestFromRequest_NoCookie(t *testing.T) {
	s := newTestService()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok, err := s.FromRequest(context.Background(), r)
	if err != nil || ok {
		t.Fatalf("missing cookie: ok=%v err=%v", ok, err)
	}
}

func TestFromRequest_UnknownCookie(t *testing.T) {
	s := newTestService()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "never-issued"})

	_, ok, err := s.FromRequest(context.Background(), r)
	if err != nil || ok {
		t.Fatalf("unknown cookie: ok=%v err=%v", ok, err)
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	sess, err := s.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: sess.ID})
	if err := s.Revoke(ctx, r); err != nil {
		t.Fatalf("Revoke err: %v", err)
	}

	_, ok, err := s.FromRequest(ctx, r)
	if err != nil || ok {
		t.Fatalf("session survived revoke: ok=%v err=%v", ok, err)
	}
}

func TestAttach_NilSessionIsFatal(t *testing.T) {
	s := newTestService()
	if err := s.Attach(httptest.NewRecorder(), nil); !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("want ErrNoArtifact, got %v", err)
	}
}

func TestClear_SetsDeletionCookie(t *testing.T) {
	s := newTestService()
	rec := httptest.NewRecorder()
	s.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("deletion cookie wrong: %+v", cookies)
	}
}
