package records

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"pet-health-tracker/internal/domain/access"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/ids"
	"pet-health-tracker/internal/platform/paging"
	"pet-health-tracker/internal/platform/validate"
	"pet-health-tracker/internal/ports/persistence"
)

type Service struct {
	repo   Repository
	access *access.Validator
	dates  *dates.Parser
}

func NewService(repo Repository, v *access.Validator) *Service {
	return &Service{
		repo:   repo,
		access: v,
		dates:  dates.NewParser(),
	}
}

// WithDates fija el parser (y su reloj) en tests.
func (s *Service) WithDates(p *dates.Parser) *Service {
	s.dates = p
	return s
}

// commonFields es la parte del body compartida por todos los Kind.
type commonFields struct {
	PetID   string  `json:"pet_id"`
	Date    string  `json:"date"`
	Time    string  `json:"time"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

func parseCommon(raw []byte) (commonFields, error) {
	var c commonFields
	if err := json.Unmarshal(raw, &c); err != nil {
		return commonFields{}, apperr.New(apperr.BadRequest, "invalid json")
	}
	if err := validate.Struct(c); err != nil {
		return commonFields{}, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, k Kind, petID, username string, p paging.Params) ([]Record, int64, error) {
	if err := s.access.ValidatePetAccess(ctx, petID, username); err != nil {
		return nil, 0, err
	}
	skip, limit := p.Window()
	items, total, err := s.repo.ListByPet(ctx, k.Collection, petID, skip, limit)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, err)
	}
	return items, total, nil
}

// ListAll trae todos los registros de la mascota (export).
func (s *Service) ListAll(ctx context.Context, k Kind, petID, username string) ([]Record, error) {
	if err := s.access.ValidatePetAccess(ctx, petID, username); err != nil {
		return nil, err
	}
	items, _, err := s.repo.ListByPet(ctx, k.Collection, petID, 0, 0)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	return items, nil
}

// Create: date+time opcionales (ambos o ninguno => ahora).
func (s *Service) Create(ctx context.Context, k Kind, username string, raw []byte) (Record, error) {
	c, err := parseCommon(raw)
	if err != nil {
		return Record{}, err
	}
	petID := strings.TrimSpace(c.PetID)
	if err := s.access.ValidatePetAccess(ctx, petID, username); err != nil {
		return Record{}, err
	}

	dt, err := s.dates.ParseEventDateTimeSafe(c.Date, c.Time)
	if err != nil {
		return Record{}, err
	}

	fields, err := k.BuildFields(nil, raw)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:       ids.New(),
		PetID:    petID,
		DateTime: dt,
		Username: username,
		Fields:   fields,
	}
	if c.Comment != nil {
		rec.Comment = strings.TrimSpace(*c.Comment)
	}

	if err := s.repo.Create(ctx, k.Collection, rec); err != nil {
		return Record{}, apperr.Wrap(apperr.Internal, err)
	}
	return rec, nil
}

// Update re-parsea la fecha solo si vienen date y time; pet_id no se puede mover.
func (s *Service) Update(ctx context.Context, k Kind, recordID, username string, raw []byte) (Record, error) {
	rec, _, err := access.GetRecordAndValidateAccess(ctx, s.access, recordID, s.finder(k), username)
	if err != nil {
		return Record{}, err
	}

	c, err := parseCommon(raw)
	if err != nil {
		return Record{}, err
	}

	if strings.TrimSpace(c.Date) != "" && strings.TrimSpace(c.Time) != "" {
		dt, err := s.dates.ParseEventDateTimeSafe(c.Date, c.Time)
		if err != nil {
			return Record{}, err
		}
		rec.DateTime = dt
	}
	if c.Comment != nil {
		rec.Comment = strings.TrimSpace(*c.Comment)
	}

	fields, err := k.BuildFields(rec.Fields, raw)
	if err != nil {
		return Record{}, err
	}
	rec.Fields = fields

	if err := s.repo.Update(ctx, k.Collection, rec); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Record{}, apperr.New(apperr.NotFound, "record not found")
		}
		return Record{}, apperr.Wrap(apperr.Internal, err)
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, k Kind, recordID, username string) error {
	rec, _, err := access.GetRecordAndValidateAccess(ctx, s.access, recordID, s.finder(k), username)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, k.Collection, rec.ID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err)
	}
	if !deleted {
		return apperr.New(apperr.NotFound, "record not found")
	}
	return nil
}

func (s *Service) finder(k Kind) access.Finder[Record] {
	return func(ctx context.Context, id string) (Record, error) {
		return s.repo.GetByID(ctx, k.Collection, id)
	}
}
