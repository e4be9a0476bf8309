package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/respond"
)

// RegisterRoutes monta /users (solo admin) y /me.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Use(middleware.RequireAdmin)
		ur.Get("/", listUsersHandler(svc))
		ur.Post("/", createUserHandler(svc))
		ur.Get("/{username}", getUserHandler(svc))
		ur.Put("/{username}", updateUserHandler(svc))
		ur.Patch("/{username}", updateUserHandler(svc))
		ur.Delete("/{username}", deleteUserHandler(svc))
	})

	r.Get("/me", meHandler(svc))
	r.Post("/me/password", changePasswordHandler(svc))
}

type userResponse struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at"`
}

// El hash nunca sale por la API.
func toResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		IsActive:  u.IsActive,
		IsAdmin:   u.IsAdmin,
		CreatedBy: u.CreatedBy,
		CreatedAt: dates.Format(u.CreatedAt),
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toResponse(u))
		}
		respond.Success(w, http.StatusOK, "", map[string]any{"users": out})
	}
}

func createUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		var req CreateInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		u, err := svc.Create(r.Context(), actor, req)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, "user created", map[string]any{"user": toResponse(u)})
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", map[string]any{"user": toResponse(u)})
	}
}

func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		var req UpdateInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		u, err := svc.Update(r.Context(), actor, chi.URLParam(r, "username"), req)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "user updated", map[string]any{"user": toResponse(u)})
	}
}

func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, chi.URLParam(r, "username")); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "user deleted", nil)
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		u, err := svc.Get(r.Context(), username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", map[string]any{"user": toResponse(u)})
	}
}

func changePasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		var req ChangePasswordInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		if err := svc.ChangePassword(r.Context(), username, req); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "password changed", nil)
	}
}
