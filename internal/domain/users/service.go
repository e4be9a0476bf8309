package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/ids"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/validate"
	"pet-health-tracker/internal/ports/persistence"
)

// SessionRevoker corta las sesiones de un usuario (borrado, cambio de password).
type SessionRevoker interface {
	RevokeAll(ctx context.Context, username string) error
}

type Service struct {
	repo     Repository
	sessions SessionRevoker
	log      logger.Logger
	cost     int
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		log:  logger.Nop(),
		cost: bcrypt.DefaultCost,
		now:  time.Now,
	}
}

func (s *Service) WithSessions(r SessionRevoker) *Service {
	s.sessions = r
	return s
}

func (s *Service) WithLogger(l logger.Logger) *Service {
	s.log = l
	return s
}

// WithBcryptCost baja el costo en tests.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.cost = cost
	return s
}

// Authenticate valida credenciales. Usuario inexistente, inactivo o password
// incorrecto devuelven el mismo InvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, apperr.New(apperr.InvalidCredentials)
		}
		return User{}, apperr.Wrap(apperr.Internal, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, apperr.New(apperr.InvalidCredentials)
	}
	if !u.IsActive {
		return User{}, apperr.New(apperr.InvalidCredentials)
	}
	return u, nil
}

// Active devuelve el usuario si existe y está activo (refresh de sesión).
func (s *Service) Active(ctx context.Context, username string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, apperr.New(apperr.Unauthorized)
		}
		return User{}, apperr.Wrap(apperr.Internal, err)
	}
	if !u.IsActive {
		return User{}, apperr.New(apperr.Unauthorized)
	}
	return u, nil
}

// Exists lo usa pets para validar el destinatario de un share.
func (s *Service) Exists(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *Service) Get(ctx context.Context, username string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, apperr.New(apperr.NotFound, "user not found")
		}
		return User{}, apperr.Wrap(apperr.Internal, err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	return items, nil
}

type CreateInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"full_name" validate:"max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive *bool  `json:"is_active"`
}

func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, apperr.Wrap(apperr.Internal, err)
	}

	u := User{
		ID:           ids.New(),
		Username:     in.Username,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(in.FullName),
		Email:        in.Email,
		IsActive:     true,
		IsAdmin:      in.IsAdmin,
		CreatedBy:    actor,
		CreatedAt:    s.now().UTC(),
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return User{}, apperr.New(apperr.Conflict, "username already exists")
		}
		return User{}, apperr.Wrap(apperr.Internal, err)
	}
	return u, nil
}

// UpdateInput (admin). Password opcional: si viene, se re-hashea.
type UpdateInput struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	IsAdmin  *bool   `json:"is_admin"`
	IsActive *bool   `json:"is_active"`
}

func (s *Service) Update(ctx context.Context, actor, username string, in UpdateInput) (User, error) {
	if err := validate.Struct(in); err != nil {
		return User{}, err
	}
	u, err := s.Get(ctx, username)
	if err != nil {
		return User{}, err
	}

	// Un admin no puede quitarse a sí mismo el rol ni desactivarse.
	if actor == u.Username {
		if (in.IsAdmin != nil && !*in.IsAdmin) || (in.IsActive != nil && !*in.IsActive) {
			return User{}, apperr.New(apperr.ValidationError, "cannot demote or deactivate yourself")
		}
	}

	revoke := false
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
		revoke = true
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
		revoke = revoke || !u.IsActive
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost)
		if err != nil {
			return User{}, apperr.Wrap(apperr.Internal, err)
		}
		u.PasswordHash = string(hash)
		revoke = true
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, apperr.New(apperr.NotFound, "user not found")
		}
		return User{}, apperr.Wrap(apperr.Internal, err)
	}
	if revoke {
		s.revokeSessions(ctx, u.Username)
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor, username string) error {
	if actor == username {
		return apperr.New(apperr.ValidationError, "cannot delete yourself")
	}
	deleted, err := s.repo.Delete(ctx, username)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err)
	}
	if !deleted {
		return apperr.New(apperr.NotFound, "user not found")
	}
	s.revokeSessions(ctx, username)
	return nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

func (s *Service) ChangePassword(ctx context.Context, username string, in ChangePasswordInput) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	u, err := s.Get(ctx, username)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return apperr.New(apperr.InvalidCredentials, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.cost)
	if err != nil {
		return apperr.Wrap(apperr.Internal, err)
	}
	u.PasswordHash = string(hash)
	if err := s.repo.Update(ctx, u); err != nil {
		return apperr.Wrap(apperr.Internal, err)
	}
	s.revokeSessions(ctx, username)
	return nil
}

// EnsureAdmin crea el admin inicial si todavía no hay usuarios.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return false, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, "system", CreateInput{
		Username: username,
		Password: password,
		FullName: "Administrator",
		IsAdmin:  true,
	}); err != nil {
		return false, err
	}
	s.log.Info("bootstrap admin created", map[string]any{"username": username})
	return true, nil
}

func (s *Service) revokeSessions(ctx context.Context, username string) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeAll(ctx, username); err != nil {
		logger.FromContext(ctx, s.log).Warn("session revoke failed", map[string]any{
			"username": username,
			"err":      err,
		})
	}
}
