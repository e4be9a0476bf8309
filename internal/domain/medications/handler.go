package medications

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/paging"
	"pet-health-tracker/internal/platform/respond"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Get("/", listMedicationsHandler(svc))
		mr.Post("/", createMedicationHandler(svc))

		mr.Delete("/intakes/{intakeID}", deleteIntakeHandler(svc))

		mr.Put("/{medID}", updateMedicationHandler(svc))
		mr.Patch("/{medID}", updateMedicationHandler(svc))
		mr.Delete("/{medID}", deleteMedicationHandler(svc))

		mr.Get("/{medID}/intakes", listIntakesHandler(svc))
		mr.Post("/{medID}/intakes", logIntakeHandler(svc))
	})
}

type medicationResponse struct {
	ID                        string   `json:"_id"`
	PetID                     string   `json:"pet_id"`
	Name                      string   `json:"name"`
	Type                      string   `json:"type"`
	Dosage                    string   `json:"dosage"`
	Unit                      string   `json:"unit"`
	Schedule                  Schedule `json:"schedule"`
	Comment                   string   `json:"comment"`
	InventoryEnabled          bool     `json:"inventory_enabled"`
	InventoryTotal            *float64 `json:"inventory_total"`
	InventoryCurrent          *float64 `json:"inventory_current"`
	InventoryWarningThreshold *float64 `json:"inventory_warning_threshold"`
	IsActive                  bool     `json:"is_active"`
	Owner                     string   `json:"owner"`
	CreatedAt                 string   `json:"created_at"`

	IntakesToday *int64  `json:"intakes_today,omitempty"`
	LastTakenAt  *string `json:"last_taken_at,omitempty"`
}

type intakeResponse struct {
	ID           string  `json:"_id"`
	MedicationID string  `json:"medication_id"`
	PetID        string  `json:"pet_id"`
	DateTime     string  `json:"date_time"`
	DoseTaken    float64 `json:"dose_taken"`
	Username     string  `json:"username"`
	Comment      string  `json:"comment"`
}

func toMedicationResponse(m Medication) medicationResponse {
	sch := m.Schedule
	if sch.Days == nil {
		sch.Days = []int{}
	}
	if sch.Times == nil {
		sch.Times = []string{}
	}
	return medicationResponse{
		ID:                        m.ID,
		PetID:                     m.PetID,
		Name:                      m.Name,
		Type:                      m.Type,
		Dosage:                    m.Dosage,
		Unit:                      m.Unit,
		Schedule:                  sch,
		Comment:                   m.Comment,
		InventoryEnabled:          m.InventoryEnabled,
		InventoryTotal:            m.InventoryTotal,
		InventoryCurrent:          m.InventoryCurrent,
		InventoryWarningThreshold: m.InventoryWarningThreshold,
		IsActive:                  m.IsActive,
		Owner:                     m.Owner,
		CreatedAt:                 dates.Format(m.CreatedAt),
	}
}

func toViewResponse(v View) medicationResponse {
	out := toMedicationResponse(v.Medication)
	n := v.IntakesToday
	out.IntakesToday = &n
	out.LastTakenAt = formatPtr(v.LastTakenAt)
	return out
}

func toIntakeResponse(in Intake) intakeResponse {
	return intakeResponse{
		ID:           in.ID,
		MedicationID: in.MedicationID,
		PetID:        in.PetID,
		DateTime:     dates.Format(in.DateTime),
		DoseTaken:    in.DoseTaken,
		Username:     in.Username,
		Comment:      in.Comment,
	}
}

func formatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := dates.Format(*t)
	return &s
}

func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		views, err := svc.ListForPet(r.Context(), r.URL.Query().Get("pet_id"), username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		out := make([]medicationResponse, 0, len(views))
		for _, v := range views {
			out = append(out, toViewResponse(v))
		}
		respond.Success(w, http.StatusOK, "", map[string]any{"medications": out})
	}
}

func createMedicationHandler(svc *Service) http.HandlerFunc {
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

		m, err := svc.Create(r.Context(), username, req)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, "medication created", map[string]any{
			"medication": toMedicationResponse(m),
		})
	}
}

func updateMedicationHandler(svc *Service) http.HandlerFunc {
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

		m, err := svc.Update(r.Context(), chi.URLParam(r, "medID"), username, req)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "medication updated", map[string]any{
			"medication": toMedicationResponse(m),
		})
	}
}

func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "medID"), username); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "medication deleted", nil)
	}
}

// logIntakeHandler godoc
// @Summary Registrar una toma
// @Description Descuenta dose_taken del inventario si está habilitado (nunca baja de 0).
// @Tags medications
// @Accept json
// @Produce json
// @Param medID path string true "ID del medicamento"
// @Success 201
// @Router /medications/{medID}/intakes [post]
func logIntakeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		var req LogIntakeInput
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}

		in, stock, err := svc.LogIntake(r.Context(), chi.URLParam(r, "medID"), username, req)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, "intake logged", map[string]any{
			"intake":            toIntakeResponse(in),
			"inventory_current": stock,
		})
	}
}

func listIntakesHandler(svc *Service) http.HandlerFunc {
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

		items, total, err := svc.ListIntakes(r.Context(), chi.URLParam(r, "medID"), username, p)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		out := make([]intakeResponse, 0, len(items))
		for _, in := range items {
			out = append(out, toIntakeResponse(in))
		}
		payload := p.Meta(total)
		payload["intakes"] = out
		respond.Success(w, http.StatusOK, "", payload)
	}
}

func deleteIntakeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		stock, err := svc.DeleteIntake(r.Context(), chi.URLParam(r, "intakeID"), username)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, "intake deleted", map[string]any{
			"inventory_current": stock,
		})
	}
}
