package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/ports/auth"
	"pet-health-tracker/internal/ports/persistence"
)

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type testRepo struct{ items map[string]RefreshToken }

func (r *testRepo) Save(ctx context.Context, t RefreshToken) error {
	r.items[t.Token] = t
	return nil
}

func (r *testRepo) Find(ctx context.Context, token string) (RefreshToken, error) {
	t, ok := r.items[token]
	if !ok {
		return RefreshToken{}, persistence.ErrNotFound
	}
	return t, nil
}

func (r *testRepo) Delete(ctx context.Context, token string) (bool, error) {
	if _, ok := r.items[token]; !ok {
		return false, nil
	}
	delete(r.items, token)
	return true, nil
}

func (r *testRepo) DeleteByUser(ctx context.Context, username string) (int64, error) {
	var n int64
	for k, t := range r.items {
		if t.Username == username {
			delete(r.items, k)
			n++
		}
	}
	return n, nil
}

// testIssuer emite tokens "refresh:<user>:<n>" sin firma.
type testIssuer struct{ n int }

func (i *testIssuer) Issue(username string, isAdmin bool) (auth.Tokens, error) {
	i.n++
	return auth.Tokens{
		AccessToken:      fmt.Sprintf("access:%s:%d", username, i.n),
		AccessExpiresAt:  fixedNow.Add(15 * time.Minute),
		RefreshToken:     fmt.Sprintf("refresh:%s:%d", username, i.n),
		RefreshExpiresAt: fixedNow.Add(24 * time.Hour),
	}, nil
}

func (i *testIssuer) VerifyRefresh(token string) (auth.Claims, time.Time, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "refresh" {
		return auth.Claims{}, time.Time{}, errors.New("bad token")
	}
	return auth.Claims{Username: parts[1]}, fixedNow.Add(24 * time.Hour), nil
}

type testUsers struct{ active map[string]bool }

func (u testUsers) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	if password != "secret" || !u.active[username] {
		return users.User{}, apperr.New(apperr.InvalidCredentials)
	}
	return users.User{Username: username, IsActive: true}, nil
}

func (u testUsers) Active(ctx context.Context, username string) (users.User, error) {
	if !u.active[username] {
		return users.User{}, apperr.New(apperr.Unauthorized)
	}
	return users.User{Username: username, IsActive: true}, nil
}

type countLimiter struct {
	max  int
	seen map[string]int
}

func (l *countLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.seen[key]++
	return l.seen[key] <= l.max, nil
}

func newTestService() (*Service, *testRepo) {
	repo := &testRepo{items: map[string]RefreshToken{}}
	svc := NewService(repo, &testIssuer{}, testUsers{active: map[string]bool{"alice": true}}).
		WithClock(func() time.Time { return fixedNow })
	return svc, repo
}

func TestLogin_PersistsRefreshToken(t *testing.T) {
	svc, repo := newTestService()

	tokens, u, err := svc.Login(context.Background(), "alice", "secret", "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("unexpected user %+v", u)
	}
	stored, ok := repo.items[tokens.RefreshToken]
	if !ok || stored.Username != "alice" || !stored.ExpiresAt.Equal(tokens.RefreshExpiresAt) {
		t.Fatalf("refresh token not persisted: %+v", stored)
	}

	if _, _, err := svc.Login(context.Background(), "alice", "nope", "10.0.0.1"); !apperr.HasKey(err, apperr.InvalidCredentials) {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	svc, _ := newTestService()
	svc.WithLimiter(&countLimiter{max: 2, seen: map[string]int{}})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _, _ = svc.Login(ctx, "alice", "bad", "10.0.0.1")
	}
	if _, _, err := svc.Login(ctx, "alice", "secret", "10.0.0.1"); !apperr.HasKey(err, apperr.RateLimited) {
		t.Fatalf("expected RateLimited, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice", "secret", "10.0.0.2"); err != nil {
		t.Fatalf("other client must not be limited: %v", err)
	}
}

func TestRefresh_RotatesAndIsSingleUse(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, _, err := svc.Login(ctx, "alice", "secret", "c")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token must rotate")
	}
	if _, ok := repo.items[first.RefreshToken]; ok {
		t.Fatalf("old refresh token must be removed")
	}

	if _, err := svc.Refresh(ctx, first.RefreshToken); !apperr.HasKey(err, apperr.Unauthorized) {
		t.Fatalf("reused refresh token must fail, got %v", err)
	}
}

func TestRefresh_RequiresStorePresence(t *testing.T) {
	svc, _ := newTestService()

	// Firma válida pero nunca persistido.
	if _, err := svc.Refresh(context.Background(), "refresh:alice:99"); !apperr.HasKey(err, apperr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "garbage"); !apperr.HasKey(err, apperr.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}
}

func TestLogoutAndRevokeAll(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	a, _, _ := svc.Login(ctx, "alice", "secret", "c")
	b, _, _ := svc.Login(ctx, "alice", "secret", "c")

	if err := svc.Logout(ctx, a.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, a.RefreshToken); err == nil {
		t.Fatalf("logged out token must not refresh")
	}

	if err := svc.RevokeAll(ctx, "alice"); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if _, ok := repo.items[b.RefreshToken]; ok {
		t.Fatalf("expected all alice tokens revoked")
	}
}

func TestHandlers_LoginSetsCookiesAndLogoutClears(t *testing.T) {
	svc, _ := newTestService()
	r := chi.NewRouter()
	RegisterRoutes(r, svc, false)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var refresh *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.RefreshCookie {
			refresh = c
		}
	}
	if refresh == nil || !refresh.HttpOnly {
		t.Fatalf("expected http-only refresh cookie")
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(refresh)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected refresh 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected logout 200, got %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AccessCookie && c.MaxAge >= 0 {
			t.Fatalf("expected access cookie cleared")
		}
	}
}
