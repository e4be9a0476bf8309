package pets

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/respond"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		// Perfil de mascota (owner o compartido)
		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Put("/{petID}", updatePetHandler(svc))

		// Solo owner
		pr.Delete("/{petID}", deletePetHandler(svc))

		pr.Get("/{petID}/share", listSharesHandler(svc))
		pr.Post("/{petID}/share", shareHandler(svc))
		pr.Delete("/{petID}/share/{username}", unshareHandler(svc))

		pr.Post("/{petID}/photo", uploadPhotoHandler(svc))
		pr.Get("/{petID}/photo", getPhotoHandler(svc))
		pr.Delete("/{petID}/photo", deletePhotoHandler(svc))
	})
}

type petResponse struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	Species       Species        `json:"species"`
	Breed         string         `json:"breed"`
	Gender        Gender         `json:"gender"`
	BirthDate     *string        `json:"birth_date"`
	IsNeutered    bool           `json:"is_neutered"`
	Owner         string         `json:"owner"`
	SharedWith    []string       `json:"shared_with"`
	PhotoURL      *string        `json:"photo_url"`
	TilesSettings map[string]any `json:"tiles_settings,omitempty"`
	IsOwner       bool           `json:"current_user_is_owner"`
	CreatedAt     string         `json:"created_at"`
}

func toPetResponse(p Pet, username string) petResponse {
	out := petResponse{
		ID:            p.ID,
		Name:          p.Name,
		Species:       p.Species,
		Breed:         p.Breed,
		Gender:        p.Gender,
		IsNeutered:    p.IsNeutered,
		Owner:         p.Owner,
		SharedWith:    p.SharedWith,
		TilesSettings: p.TilesSettings,
		IsOwner:       p.Owner == username,
		CreatedAt:     dates.Format(p.CreatedAt),
	}
	if out.SharedWith == nil {
		out.SharedWith = []string{}
	}
	if bd := dates.FormatDate(p.BirthDate); bd != "" {
		out.BirthDate = &bd
	}
	if p.PhotoRef != "" {
		u := "/api/pets/" + p.ID + "/photo"
		out.PhotoURL = &u
	}
	return out
}

// createPetHandler godoc
// @Summary Crear mascota
// @Tags pets
// @Accept json
// @Produce json
// @Success 201 {object} petResponse
// @Failure 422 {object} map[string]any
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		var req CreateInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		p, err := svc.Create(r.Context(), username, req)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, "pet created", map[string]any{
			"pet": toPetResponse(p, username),
		})
	}
}

func listPetsHandler(svc *Service) http.HandlerFunc {
	// Propias + compartidas
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		items, err := svc.List(r.Context(), username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p, username))
		}
		respond.Success(w, http.StatusOK, "", map[string]any{"pets": out})
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		p, err := svc.Get(r.Context(), chi.URLParam(r, "petID"), username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "", map[string]any{"pet": toPetResponse(p, username)})
	}
}

func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		var req UpdateInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), username, req)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "pet updated", map[string]any{"pet": toPetResponse(p, username)})
	}
}

// deletePetHandler godoc
// @Summary Borrar mascota y todos sus registros
// @Description Solo el owner. Intenta una transacción; si el backend no la soporta borra colección por colección y reporta fallos parciales.
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200
// @Failure 403 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		report, err := svc.Delete(r.Context(), chi.URLParam(r, "petID"), username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "pet deleted", map[string]any{"deletion": report})
	}
}

func listSharesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		p, err := svc.Get(r.Context(), chi.URLParam(r, "petID"), username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		shared := p.SharedWith
		if shared == nil {
			shared = []string{}
		}
		respond.Success(w, http.StatusOK, "", map[string]any{
			"owner":       p.Owner,
			"shared_with": shared,
		})
	}
}

type shareRequest struct {
	Username string `json:"username"`
}

func shareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		var req shareRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		p, err := svc.Share(r.Context(), chi.URLParam(r, "petID"), username, req.Username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "pet shared", map[string]any{"pet": toPetResponse(p, username)})
	}
}

func unshareHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		p, err := svc.Unshare(r.Context(), chi.URLParam(r, "petID"), username, chi.URLParam(r, "username"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "pet unshared", map[string]any{"pet": toPetResponse(p, username)})
	}
}

// uploadPhotoHandler godoc
// @Summary Subir foto (multipart, campo "photo", o el binario en el body)
// @Tags pets
// @Accept multipart/form-data
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Router /pets/{petID}/photo [post]
func uploadPhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		// Un poco de margen sobre MaxPhotoBytes para los headers multipart.
		r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoBytes+64<<10)

		var src io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, _, err := r.FormFile("photo")
			if err != nil {
				respond.Error(w, r, apperr.New(apperr.MissingParameter, "photo is required"))
				return
			}
			defer f.Close()
			src = f
		}

		p, err := svc.UploadPhoto(r.Context(), chi.URLParam(r, "petID"), username, src)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "photo uploaded", map[string]any{"pet": toPetResponse(p, username)})
	}
}

func getPhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		info, rc, err := svc.Photo(r.Context(), chi.URLParam(r, "petID"), username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer rc.Close()

		if info.ContentType != "" {
			w.Header().Set("Content-Type", info.ContentType)
		}
		if info.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
		}
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, rc)
	}
}

func deletePhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if err := svc.DeletePhoto(r.Context(), chi.URLParam(r, "petID"), username); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "photo deleted", nil)
	}
}
