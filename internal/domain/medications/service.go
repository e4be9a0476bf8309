package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health-tracker/internal/domain/access"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/ids"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/paging"
	"pet-health-tracker/internal/platform/validate"
	"pet-health-tracker/internal/ports/notify"
	"pet-health-tracker/internal/ports/persistence"
)

type Service struct {
	repo     Repository
	access   *access.Validator
	dates    *dates.Parser
	notifier notify.Notifier
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, v *access.Validator) *Service {
	return &Service{
		repo:     repo,
		access:   v,
		dates:    dates.NewParser(),
		notifier: notify.Noop{},
		log:      logger.Nop(),
		now:      time.Now,
	}
}

func (s *Service) WithNotifier(n notify.Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) WithLogger(l logger.Logger) *Service {
	s.log = l
	return s
}

// WithClock fija el reloj de "hoy" y del parser de fechas (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.dates = dates.NewParserWithClock(now)
	return s
}

// ListForPet agrega intakes_today (día UTC) y last_taken_at a cada medicamento.
func (s *Service) ListForPet(ctx context.Context, petID, username string) ([]View, error) {
	if err := s.access.ValidatePetAccess(ctx, petID, username); err != nil {
		return nil, err
	}

	meds, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	if len(meds) == 0 {
		return []View{}, nil
	}

	medIDs := make([]string, 0, len(meds))
	for _, m := range meds {
		medIDs = append(medIDs, m.ID)
	}
	from, to := dates.DayBounds(s.now())
	stats, err := s.repo.IntakeStats(ctx, medIDs, from, to)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}

	out := make([]View, 0, len(meds))
	for _, m := range meds {
		st := stats[m.ID]
		out = append(out, View{Medication: m, IntakesToday: st.TodayCount, LastTakenAt: st.LastTakenAt})
	}
	return out, nil
}

type CreateInput struct {
	PetID                     string   `json:"pet_id"`
	Name                      string   `json:"name" validate:"required,max=200"`
	Type                      string   `json:"type" validate:"max=50"`
	Dosage                    string   `json:"dosage" validate:"max=50"`
	Unit                      string   `json:"unit" validate:"max=20"`
	Schedule                  Schedule `json:"schedule"`
	Comment                   string   `json:"comment" validate:"max=1000"`
	InventoryEnabled          bool     `json:"inventory_enabled"`
	InventoryTotal            *float64 `json:"inventory_total" validate:"omitempty,gte=0"`
	InventoryCurrent          *float64 `json:"inventory_current" validate:"omitempty,gte=0"`
	InventoryWarningThreshold *float64 `json:"inventory_warning_threshold" validate:"omitempty,gte=0"`
	IsActive                  *bool    `json:"is_active"`
}

func (s *Service) Create(ctx context.Context, username string, in CreateInput) (Medication, error) {
	petID := strings.TrimSpace(in.PetID)
	if err := s.access.ValidatePetAccess(ctx, petID, username); err != nil {
		return Medication{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return Medication{}, err
	}

	m := Medication{
		ID:                        ids.New(),
		PetID:                     petID,
		Owner:                     username,
		Name:                      in.Name,
		Type:                      strings.TrimSpace(in.Type),
		Dosage:                    strings.TrimSpace(in.Dosage),
		Unit:                      strings.TrimSpace(in.Unit),
		Schedule:                  in.Schedule.Normalize(),
		Comment:                   strings.TrimSpace(in.Comment),
		InventoryEnabled:          in.InventoryEnabled,
		InventoryTotal:            in.InventoryTotal,
		InventoryCurrent:          in.InventoryCurrent,
		InventoryWarningThreshold: in.InventoryWarningThreshold,
		IsActive:                  true,
		CreatedAt:                 s.now().UTC(),
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	// Sin stock actual explícito arrancamos lleno.
	if m.InventoryEnabled && m.InventoryCurrent == nil && m.InventoryTotal != nil {
		v := *m.InventoryTotal
		m.InventoryCurrent = &v
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, apperr.Wrap(apperr.Internal, err)
	}
	return m, nil
}

// UpdateInput usa punteros: nil = no tocar.
type UpdateInput struct {
	Name                      *string   `json:"name" validate:"omitempty,max=200"`
	Type                      *string   `json:"type" validate:"omitempty,max=50"`
	Dosage                    *string   `json:"dosage" validate:"omitempty,max=50"`
	Unit                      *string   `json:"unit" validate:"omitempty,max=20"`
	Schedule                  *Schedule `json:"schedule"`
	Comment                   *string   `json:"comment" validate:"omitempty,max=1000"`
	InventoryEnabled          *bool     `json:"inventory_enabled"`
	InventoryTotal            *float64  `json:"inventory_total" validate:"omitempty,gte=0"`
	InventoryCurrent          *float64  `json:"inventory_current" validate:"omitempty,gte=0"`
	InventoryWarningThreshold *float64  `json:"inventory_warning_threshold" validate:"omitempty,gte=0"`
	IsActive                  *bool     `json:"is_active"`
}

func (s *Service) Update(ctx context.Context, medID, username string, in UpdateInput) (Medication, error) {
	m, _, err := access.GetRecordAndValidateAccess(ctx, s.access, medID, s.findMedication, username)
	if err != nil {
		return Medication{}, err
	}
	if err := validate.Struct(in); err != nil {
		return Medication{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Medication{}, apperr.New(apperr.ValidationError, "name cannot be empty")
		}
		m.Name = name
	}
	if in.Type != nil {
		m.Type = strings.TrimSpace(*in.Type)
	}
	if in.Dosage != nil {
		m.Dosage = strings.TrimSpace(*in.Dosage)
	}
	if in.Unit != nil {
		m.Unit = strings.TrimSpace(*in.Unit)
	}
	if in.Schedule != nil {
		m.Schedule = in.Schedule.Normalize()
	}
	if in.Comment != nil {
		m.Comment = strings.TrimSpace(*in.Comment)
	}
	if in.InventoryEnabled != nil {
		m.InventoryEnabled = *in.InventoryEnabled
	}
	if in.InventoryTotal != nil {
		m.InventoryTotal = in.InventoryTotal
	}
	if in.InventoryCurrent != nil {
		m.InventoryCurrent = in.InventoryCurrent
	}
	if in.InventoryWarningThreshold != nil {
		m.InventoryWarningThreshold = in.InventoryWarningThreshold
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, m); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Medication{}, apperr.New(apperr.NotFound, "medication not found")
		}
		return Medication{}, apperr.Wrap(apperr.Internal, err)
	}
	return m, nil
}

// Delete borra el medicamento y sus tomas.
func (s *Service) Delete(ctx context.Context, medID, username string) error {
	m, _, err := access.GetRecordAndValidateAccess(ctx, s.access, medID, s.findMedication, username)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, m.ID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err)
	}
	if !deleted {
		return apperr.New(apperr.NotFound, "medication not found")
	}
	return nil
}

type LogIntakeInput struct {
	DoseTaken *float64 `json:"dose_taken" validate:"omitempty,gt=0"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Comment   string   `json:"comment" validate:"max=1000"`
}

// LogIntake registra la toma y después descuenta stock (piso 0).
// Si el stock resultante queda en o bajo el umbral se publica un aviso.
func (s *Service) LogIntake(ctx context.Context, medID, username string, in LogIntakeInput) (Intake, *float64, error) {
	m, petID, err := access.GetRecordAndValidateAccess(ctx, s.access, medID, s.findMedication, username)
	if err != nil {
		return Intake{}, nil, err
	}
	if err := validate.Struct(in); err != nil {
		return Intake{}, nil, err
	}

	dt, err := s.dates.ParseEventDateTimeSafe(in.Date, in.Time)
	if err != nil {
		return Intake{}, nil, err
	}

	dose := 1.0
	if in.DoseTaken != nil {
		dose = *in.DoseTaken
	}

	intake := Intake{
		ID:           ids.New(),
		MedicationID: m.ID,
		PetID:        petID,
		DateTime:     dt,
		DoseTaken:    dose,
		Username:     username,
		Comment:      strings.TrimSpace(in.Comment),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateIntake(ctx, intake); err != nil {
		return Intake{}, nil, apperr.Wrap(apperr.Internal, err)
	}

	if !m.TracksInventory() {
		return intake, nil, nil
	}

	stock, err := s.repo.DebitInventory(ctx, m.ID, dose)
	if err != nil {
		// La toma ya quedó registrada; el stock se corrige editando el medicamento.
		logger.FromContext(ctx, s.log).Error("inventory debit failed", map[string]any{
			"medication_id": m.ID,
			"err":           err,
		})
		return intake, nil, nil
	}

	if stock != nil && m.InventoryWarningThreshold != nil && *stock <= *m.InventoryWarningThreshold {
		s.notifyLowStock(ctx, m, *stock)
	}
	return intake, stock, nil
}

func (s *Service) ListIntakes(ctx context.Context, medID, username string, p paging.Params) ([]Intake, int64, error) {
	m, _, err := access.GetRecordAndValidateAccess(ctx, s.access, medID, s.findMedication, username)
	if err != nil {
		return nil, 0, err
	}
	skip, limit := p.Window()
	items, total, err := s.repo.ListIntakes(ctx, m.ID, skip, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err)
	}
	return items, total, nil
}

// DeleteIntake borra la toma y devuelve dose_taken al stock (sin tope).
func (s *Service) DeleteIntake(ctx context.Context, intakeID, username string) (*float64, error) {
	in, _, err := access.GetRecordAndValidateAccess(ctx, s.access, intakeID, s.findIntake, username)
	if err != nil {
		return nil, err
	}

	deleted, err := s.repo.DeleteIntake(ctx, in.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	if !deleted {
		return nil, apperr.New(apperr.NotFound, "intake not found")
	}

	m, err := s.repo.GetByID(ctx, in.MedicationID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	if !m.TracksInventory() {
		return nil, nil
	}

	stock, err := s.repo.CreditInventory(ctx, m.ID, in.DoseTaken)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	return stock, nil
}

func (s *Service) findMedication(ctx context.Context, id string) (Medication, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) findIntake(ctx context.Context, id string) (Intake, error) {
	return s.repo.GetIntake(ctx, id)
}

func (s *Service) notifyLowStock(ctx context.Context, m Medication, stock float64) {
	ev := notify.Event{
		Subject: notify.SubjectInventoryLow,
		Text:    fmt.Sprintf("Medication %s is running low: %g %s left", m.Name, stock, m.Unit),
		Payload: map[string]any{
			"medication_id": m.ID,
			"pet_id":        m.PetID,
			"name":          m.Name,
			"stock":         stock,
			"threshold":     *m.InventoryWarningThreshold,
		},
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		logger.FromContext(ctx, s.log).Warn("notification failed", map[string]any{
			"subject": ev.Subject,
			"err":     err,
		})
	}
}
