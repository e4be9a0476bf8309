package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-health-tracker/internal/ports/auth"
)

type fakeVerifier struct {
	valid map[string]auth.Claims
}

func (f fakeVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	c, ok := f.valid[token]
	if !ok {
		return auth.Claims{}, errors.New("invalid token")
	}
	return c, nil
}

type fakeRefresher struct {
	refresh string
	tokens  auth.Tokens
	calls   int
}

func (f *fakeRefresher) Refresh(ctx context.Context, token string) (auth.Tokens, error) {
	f.calls++
	if token != f.refresh {
		return auth.Tokens{}, errors.New("unknown refresh")
	}
	return f.tokens, nil
}

func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := CurrentUser(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(u))
	})
}

func TestAuthContext_BearerAndCookie(t *testing.T) {
	v := fakeVerifier{valid: map[string]auth.Claims{"good": {Username: "alice"}}}
	h := AuthContext(AuthOptions{Verifier: v})(whoami())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != "alice" {
		t.Fatalf("bearer: expected alice, got %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "good"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.String() != "alice" {
		t.Fatalf("cookie: expected alice, got %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token must not authenticate, got %d", rec.Code)
	}
}

func TestAuthContext_SilentRefresh(t *testing.T) {
	v := fakeVerifier{valid: map[string]auth.Claims{"fresh": {Username: "bob"}}}
	ref := &fakeRefresher{
		refresh: "r1",
		tokens: auth.Tokens{
			AccessToken:      "fresh",
			AccessExpiresAt:  time.Now().Add(time.Hour),
			RefreshToken:     "r2",
			RefreshExpiresAt: time.Now().Add(24 * time.Hour),
		},
	}
	h := AuthContext(AuthOptions{Verifier: v, Refresher: ref})(whoami())

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "expired"})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "r1"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.String() != "bob" {
		t.Fatalf("expected refreshed session for bob, got %d %q", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	got := map[string]string{}
	for _, c := range cookies {
		got[c.Name] = c.Value
	}
	if got[AccessCookie] != "fresh" || got[RefreshCookie] != "r2" {
		t.Fatalf("cookies not rotated: %v", got)
	}
}

func TestAuthContext_DevHeader(t *testing.T) {
	h := AuthContext(AuthOptions{DevHeader: true})(RequireAdmin(whoami()))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DebugUserHeader, "carol")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin expected 403, got %d", rec.Code)
	}

	req.Header.Set(DebugAdminHeader, "true")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "carol" {
		t.Fatalf("admin expected 200, got %d", rec.Code)
	}

	// Sin DevHeader el header se ignora.
	h = AuthContext(AuthOptions{})(RequireAuth(whoami()))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with dev header disabled, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	l := NewIPRateLimiter(1, 2, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	h := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}

	// Otra IP tiene su propio bucket.
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("expected 200 for other ip, got %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRequestLogger_SetsHeader(t *testing.T) {
	h := RequestLogger(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "abc" || rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected %d %q", rec.Code, rec.Header().Get(RequestIDHeader))
	}
}
