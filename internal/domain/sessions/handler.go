package sessions

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/respond"
	"pet-health-tracker/internal/platform/validate"
	"pet-health-tracker/internal/ports/auth"
)

// RegisterRoutes monta /auth. Estas rutas van fuera de RequireAuth.
func RegisterRoutes(r chi.Router, svc *Service, cookieSecure bool) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", loginHandler(svc, cookieSecure))
		ar.Post("/refresh", refreshHandler(svc, cookieSecure))
		ar.Post("/logout", logoutHandler(svc, cookieSecure))
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func tokensPayload(t auth.Tokens) map[string]any {
	return map[string]any{
		"access_token":       t.AccessToken,
		"refresh_token":      t.RefreshToken,
		"token_type":         "bearer",
		"expires_at":         dates.Format(t.AccessExpiresAt),
		"refresh_expires_at": dates.Format(t.RefreshExpiresAt),
	}
}

// loginHandler godoc
// @Summary Login
// @Description Devuelve el par de tokens y además los setea como cookies httpOnly.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200
// @Failure 401 {object} map[string]any
// @Failure 429 {object} map[string]any
// @Router /auth/login [post]
func loginHandler(svc *Service, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := validate.Struct(req); err != nil {
			respond.Error(w, r, err)
			return
		}

		tokens, u, err := svc.Login(r.Context(), req.Username, req.Password, middleware.ClientIP(r))
		if err != nil {
			if apperr.HasKey(err, apperr.RateLimited) {
				w.Header().Set("Retry-After", "60")
			}
			respond.Error(w, r, err)
			return
		}

		middleware.SetAuthCookies(w, tokens, secure)
		payload := tokensPayload(tokens)
		payload["user"] = map[string]any{
			"username":  u.Username,
			"full_name": u.FullName,
			"is_admin":  u.IsAdmin,
		}
		respond.Success(w, http.StatusOK, "login successful", payload)
	}
}

// refreshToken toma el token del body o, si no viene, de la cookie.
func refreshToken(r *http.Request) (string, error) {
	var req refreshRequest
	if r.ContentLength > 0 {
		if err := respond.Decode(r, &req); err != nil {
			return "", err
		}
	}
	if t := strings.TrimSpace(req.RefreshToken); t != "" {
		return t, nil
	}
	if c, err := r.Cookie(middleware.RefreshCookie); err == nil {
		return strings.TrimSpace(c.Value), nil
	}
	return "", nil
}

func refreshHandler(svc *Service, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := refreshToken(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if token == "" {
			respond.Error(w, r, apperr.New(apperr.Unauthorized, "refresh token required"))
			return
		}

		tokens, err := svc.Refresh(r.Context(), token)
		if err != nil {
			middleware.ClearAuthCookies(w, secure)
			respond.Error(w, r, err)
			return
		}
		middleware.SetAuthCookies(w, tokens, secure)
		respond.Success(w, http.StatusOK, "token refreshed", tokensPayload(tokens))
	}
}

func logoutHandler(svc *Service, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := refreshToken(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := svc.Logout(r.Context(), token); err != nil {
			respond.Error(w, r, err)
			return
		}
		middleware.ClearAuthCookies(w, secure)
		respond.Success(w, http.StatusOK, "logged out", nil)
	}
}
