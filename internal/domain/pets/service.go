package pets

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-health-tracker/internal/domain/access"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/ids"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/metrics"
	"pet-health-tracker/internal/platform/validate"
	"pet-health-tracker/internal/ports/blob"
	"pet-health-tracker/internal/ports/notify"
	"pet-health-tracker/internal/ports/persistence"
)

// UserDirectory confirma que el destinatario de un share existe.
type UserDirectory interface {
	Exists(ctx context.Context, username string) (bool, error)
}

type Service struct {
	repo    Repository
	cascade CascadeStore
	access  *access.Validator
	dates   *dates.Parser

	photos   blob.Store
	users    UserDirectory
	notifier notify.Notifier
	log      logger.Logger
	metrics  *metrics.Metrics

	now func() time.Time
}

func NewService(repo Repository, cascade CascadeStore) *Service {
	s := &Service{
		repo:     repo,
		cascade:  cascade,
		dates:    dates.NewParser(),
		notifier: notify.Noop{},
		log:      logger.Nop(),
		now:      time.Now,
	}
	s.access = access.NewValidator(s)
	return s
}

func (s *Service) WithPhotos(store blob.Store) *Service    { s.photos = store; return s }
func (s *Service) WithUsers(u UserDirectory) *Service      { s.users = u; return s }
func (s *Service) WithNotifier(n notify.Notifier) *Service { s.notifier = n; return s }
func (s *Service) WithLogger(l logger.Logger) *Service     { s.log = l; return s }
func (s *Service) WithMetrics(m *metrics.Metrics) *Service { s.metrics = m; return s }
func (s *Service) WithDates(p *dates.Parser) *Service      { s.dates = p; return s }

// Access expone el validador para que records/medications usen el mismo.
func (s *Service) Access() *access.Validator {
	return s.access
}

type CreateInput struct {
	Name          string         `json:"name" validate:"required,max=100"`
	Species       string         `json:"species" validate:"max=50"`
	Breed         string         `json:"breed" validate:"max=100"`
	Gender        string         `json:"gender" validate:"omitempty,oneof=male female unknown"`
	BirthDate     string         `json:"birth_date"` // YYYY-MM-DD opcional
	IsNeutered    bool           `json:"is_neutered"`
	TilesSettings map[string]any `json:"tiles_settings"`
}

func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(owner) == "" {
		return Pet{}, apperr.New(apperr.Unauthorized)
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return Pet{}, err
	}

	bd, err := s.dates.ParseDate(in.BirthDate, false)
	if err != nil {
		return Pet{}, err
	}

	p := Pet{
		ID:            ids.New(),
		Owner:         owner,
		Name:          in.Name,
		Species:       Species(strings.TrimSpace(in.Species)),
		Breed:         strings.TrimSpace(in.Breed),
		Gender:        Gender(in.Gender),
		BirthDate:     bd,
		IsNeutered:    in.IsNeutered,
		SharedWith:    []string{},
		TilesSettings: in.TilesSettings,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, apperr.Wrap(apperr.Internal, err)
	}
	return p, nil
}

// List devuelve las mascotas propias y compartidas con username.
func (s *Service) List(ctx context.Context, username string) ([]Pet, error) {
	items, err := s.repo.ListAccessible(ctx, username)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, petID, username string) (Pet, error) {
	if _, err := s.access.GetPetAndValidate(ctx, petID, username); err != nil {
		return Pet{}, err
	}
	return s.load(ctx, petID)
}

// UpdateInput usa punteros para PATCH real: nil = no tocar.
type UpdateInput struct {
	Name          *string        `json:"name" validate:"omitempty,max=100"`
	Species       *string        `json:"species" validate:"omitempty,max=50"`
	Breed         *string        `json:"breed" validate:"omitempty,max=100"`
	Gender        *string        `json:"gender" validate:"omitempty,oneof=male female unknown"`
	BirthDate     *string        `json:"birth_date"` // "" limpia la fecha
	IsNeutered    *bool          `json:"is_neutered"`
	TilesSettings map[string]any `json:"tiles_settings"`
}

// Update: owner o usuario compartido.
func (s *Service) Update(ctx context.Context, petID, username string, in UpdateInput) (Pet, error) {
	if _, err := s.access.GetPetAndValidate(ctx, petID, username); err != nil {
		return Pet{}, err
	}
	if err := validate.Struct(in); err != nil {
		return Pet{}, err
	}

	p, err := s.load(ctx, petID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, apperr.New(apperr.ValidationError, "name cannot be empty")
		}
		p.Name = name
	}
	if in.Species != nil {
		p.Species = Species(strings.TrimSpace(*in.Species))
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Gender != nil {
		p.Gender = Gender(*in.Gender)
	}
	if in.BirthDate != nil {
		bd, err := s.dates.ParseDate(*in.BirthDate, false)
		if err != nil {
			return Pet{}, err
		}
		p.BirthDate = bd
	}
	if in.IsNeutered != nil {
		p.IsNeutered = *in.IsNeutered
	}
	if in.TilesSettings != nil {
		p.TilesSettings = in.TilesSettings
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Pet{}, apperr.New(apperr.NotFound, "pet not found")
		}
		return Pet{}, apperr.Wrap(apperr.Internal, err)
	}
	return p, nil
}

// Share agrega target a shared_with. Solo el owner; idempotente.
func (s *Service) Share(ctx context.Context, petID, owner, target string) (Pet, error) {
	if _, err := s.access.OwnerOnly(ctx, petID, owner); err != nil {
		return Pet{}, err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return Pet{}, apperr.New(apperr.MissingParameter, "username is required")
	}
	if target == owner {
		return Pet{}, apperr.New(apperr.ValidationError, "cannot share a pet with its owner")
	}
	if s.users != nil {
		ok, err := s.users.Exists(ctx, target)
		if err != nil {
			return Pet{}, apperr.Wrap(apperr.Internal, err)
		}
		if !ok {
			return Pet{}, apperr.New(apperr.NotFound, "user not found")
		}
	}

	if err := s.repo.AddSharedUser(ctx, petID, target); err != nil {
		return Pet{}, apperr.Wrap(apperr.Internal, err)
	}
	return s.load(ctx, petID)
}

func (s *Service) Unshare(ctx context.Context, petID, owner, target string) (Pet, error) {
	if _, err := s.access.OwnerOnly(ctx, petID, owner); err != nil {
		return Pet{}, err
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return Pet{}, apperr.New(apperr.MissingParameter, "username is required")
	}

	removed, err := s.repo.RemoveSharedUser(ctx, petID, target)
	if err != nil {
		return Pet{}, apperr.Wrap(apperr.Internal, err)
	}
	if !removed {
		return Pet{}, apperr.New(apperr.NotFound, "pet is not shared with this user")
	}
	return s.load(ctx, petID)
}

func (s *Service) load(ctx context.Context, petID string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Pet{}, apperr.New(apperr.NotFound, "pet not found")
		}
		return Pet{}, apperr.Wrap(apperr.Internal, err)
	}
	return p, nil
}

func (s *Service) notify(ctx context.Context, ev notify.Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.metrics.ObserveNotifyFailure(ev.Subject)
		logger.FromContext(ctx, s.log).Warn("notification failed", map[string]any{
			"subject": ev.Subject,
			"err":     err,
		})
	}
}
