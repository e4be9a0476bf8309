package records

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/paging"
	"pet-health-tracker/internal/platform/respond"
)

const maxBodyBytes = 1 << 20

// RegisterRoutes monta /{kind} para cada tipo de registro.
func RegisterRoutes(r chi.Router, svc *Service) {
	for _, k := range All() {
		r.Route("/"+k.Name, func(kr chi.Router) {
			kr.Get("/", listRecordsHandler(svc, k))
			kr.Post("/", createRecordHandler(svc, k))
			kr.Put("/{recordID}", updateRecordHandler(svc, k))
			kr.Patch("/{recordID}", updateRecordHandler(svc, k))
			kr.Delete("/{recordID}", deleteRecordHandler(svc, k))
		})
	}
}

// recordResponse documenta la forma común; los campos propios del tipo se agregan planos.
type recordResponse struct {
	ID       string `json:"_id"`
	PetID    string `json:"pet_id"`
	DateTime string `json:"date_time" example:"2024-01-15 14:30"`
	Username string `json:"username"`
	Comment  string `json:"comment"`
}

// recordRequest documenta el body de create/update. Además van los campos del tipo
// (ej: duration/reason/inhalation para asthma, weight/food para weight).
type recordRequest struct {
	PetID   string `json:"pet_id"`
	Date    string `json:"date" example:"2024-01-15"`
	Time    string `json:"time" example:"14:30"`
	Comment string `json:"comment"`
}

type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// listRecordsHandler godoc
// @Summary Listar registros de salud
// @Description Lista los registros de un tipo para una mascota, ordenados por date_time descendente. Requiere ser owner o tener la mascota compartida. Autenticación: `X-Debug-User-ID` (dev), cookie `access_token` o `Authorization: Bearer <token>`.
// @Tags records
// @Produce json
// @Param kind path string true "Tipo de registro" Enums(asthma, defecation, litter, weight, feeding, eye_drops, tooth_brushing, ear_cleaning)
// @Param pet_id query string true "ID de la mascota (24 hex)"
// @Param page query int false "Página (>= 1). Por defecto 1"
// @Param page_size query int false "Tamaño de página (1-1000). Por defecto 100"
// @Success 200 {array} recordResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Router /{kind} [get]
func listRecordsHandler(svc *Service, k Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		p, err := paging.FromQuery(r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		items, total, err := svc.List(r.Context(), k, r.URL.Query().Get("pet_id"), username, p)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		out := make([]map[string]any, 0, len(items))
		for _, rec := range items {
			out = append(out, ToResponse(rec))
		}

		payload := p.Meta(total)
		payload[k.Collection] = out
		respond.Success(w, http.StatusOK, "", payload)
	}
}

// createRecordHandler godoc
// @Summary Crear registro de salud
// @Description Crea un registro para la mascota indicada. Si vienen `date` y `time` se validan (hasta 1 día a futuro, 50 años al pasado); si falta alguno se usa la hora actual.
// @Tags records
// @Accept json
// @Produce json
// @Param kind path string true "Tipo de registro" Enums(asthma, defecation, litter, weight, feeding, eye_drops, tooth_brushing, ear_cleaning)
// @Param payload body recordRequest true "Campos comunes + campos del tipo"
// @Success 201 {object} recordResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Router /{kind} [post]
func createRecordHandler(svc *Service, k Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		raw, err := readBody(w, r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		rec, err := svc.Create(r.Context(), k, username, raw)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, "record created", map[string]any{
			"_id":    rec.ID,
			"record": ToResponse(rec),
		})
	}
}

// updateRecordHandler godoc
// @Summary Actualizar registro de salud
// @Description Actualiza un registro. La fecha solo se re-parsea cuando vienen `date` y `time`. Los campos no enviados conservan su valor.
// @Tags records
// @Accept json
// @Produce json
// @Param kind path string true "Tipo de registro" Enums(asthma, defecation, litter, weight, feeding, eye_drops, tooth_brushing, ear_cleaning)
// @Param recordID path string true "ID del registro (24 hex)"
// @Param payload body recordRequest true "Campos a modificar"
// @Success 200 {object} recordResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Router /{kind}/{recordID} [put]
func updateRecordHandler(svc *Service, k Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		raw, err := readBody(w, r)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		rec, err := svc.Update(r.Context(), k, chi.URLParam(r, "recordID"), username, raw)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "record updated", map[string]any{"record": ToResponse(rec)})
	}
}

// deleteRecordHandler godoc
// @Summary Borrar registro de salud
// @Tags records
// @Produce json
// @Param kind path string true "Tipo de registro" Enums(asthma, defecation, litter, weight, feeding, eye_drops, tooth_brushing, ear_cleaning)
// @Param recordID path string true "ID del registro (24 hex)"
// @Success 200 {object} map[string]any
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /{kind}/{recordID} [delete]
func deleteRecordHandler(svc *Service, k Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), k, chi.URLParam(r, "recordID"), username); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "record deleted", nil)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, apperr.New(apperr.BadRequest, "request body is required")
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.New(apperr.BadRequest, "request body too large")
	}
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, apperr.New(apperr.BadRequest, "invalid json")
	}
	return raw, nil
}
