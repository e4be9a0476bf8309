package middleware

import (
	"context"
	"net/http"
	"strings"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/respond"
	"pet-health-tracker/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	DebugUserHeader  = "X-Debug-User-ID"
	DebugAdminHeader = "X-Debug-Admin"
)

type AuthOptions struct {
	Verifier  auth.AuthVerifier
	Refresher auth.Refresher // opcional: refresh silencioso vía cookie

	// DevHeader habilita X-Debug-User-ID (solo dev/tests).
	DevHeader    bool
	CookieSecure bool
}

// AuthContext:
// - DevHeader y viene X-Debug-User-ID => setea claims sin verificar.
// - Token en Authorization: Bearer o cookie access_token => Verify().
// - Access inválido/ausente + cookie refresh_token => refresh silencioso, reescribe cookies.
// - Si no hay claims, el request sigue igual; RequireAuth decide el 401.
func AuthContext(opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.DevHeader {
				if uid := strings.TrimSpace(r.Header.Get(DebugUserHeader)); uid != "" {
					claims := auth.Claims{
						Username: uid,
						IsAdmin:  r.Header.Get(DebugAdminHeader) == "true",
					}
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
			}

			if opts.Verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			if token := accessToken(r); token != "" {
				if claims, err := opts.Verifier.Verify(r.Context(), token); err == nil {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
			}

			if opts.Refresher != nil {
				if c, err := r.Cookie(RefreshCookie); err == nil && strings.TrimSpace(c.Value) != "" {
					tokens, err := opts.Refresher.Refresh(r.Context(), c.Value)
					if err == nil {
						if claims, err := opts.Verifier.Verify(r.Context(), tokens.AccessToken); err == nil {
							SetAuthCookies(w, tokens, opts.CookieSecure)
							logger.FromContext(r.Context(), nil).Debug("session refreshed", map[string]any{
								"username": claims.Username,
							})
							next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
							return
						}
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth corta con 401 si no hay claims.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := CurrentUser(r.Context()); err != nil {
			respond.Error(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin: 401 sin sesión, 403 si la sesión no es admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.Username) == "" {
			respond.Error(w, r, apperr.New(apperr.Unauthorized))
			return
		}
		if !claims.IsAdmin {
			respond.Error(w, r, apperr.New(apperr.AdminRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// CurrentUser devuelve el username autenticado o Unauthorized.
func CurrentUser(ctx context.Context) (string, error) {
	c, ok := GetClaims(ctx)
	if !ok || strings.TrimSpace(c.Username) == "" {
		return "", apperr.New(apperr.Unauthorized)
	}
	return c.Username, nil
}

func accessToken(r *http.Request) string {
	if t := bearerToken(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if c, err := r.Cookie(AccessCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
