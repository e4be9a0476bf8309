package sessions

import (
	"context"
	"errors"
	"time"

	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/metrics"
	"pet-health-tracker/internal/ports/auth"
	"pet-health-tracker/internal/ports/persistence"
)

// TokenIssuer firma el par access/refresh y valida refresh tokens.
type TokenIssuer interface {
	Issue(username string, isAdmin bool) (auth.Tokens, error)
	VerifyRefresh(token string) (auth.Claims, time.Time, error)
}

// Authenticator es la parte de users que usa el login.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (users.User, error)
	Active(ctx context.Context, username string) (users.User, error)
}

// LoginLimiter cuenta intentos de login por clave (dirección del cliente)
// en una ventana fija.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Service struct {
	repo    Repository
	tokens  TokenIssuer
	users   Authenticator
	limiter LoginLimiter
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, u Authenticator) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		users:  u,
		log:    logger.Nop(),
		now:    time.Now,
	}
}

func (s *Service) WithLimiter(l LoginLimiter) *Service {
	s.limiter = l
	return s
}

func (s *Service) WithLogger(l logger.Logger) *Service {
	s.log = l
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login verifica credenciales, emite tokens y persiste el refresh.
func (s *Service) Login(ctx context.Context, username, password, clientKey string) (auth.Tokens, users.User, error) {
	log := logger.FromContext(ctx, s.log)

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, "login:"+clientKey)
		if err != nil {
			// Si el limiter no responde no bloqueamos el login.
			log.Warn("login limiter unavailable", map[string]any{"err": err})
		} else if !ok {
			s.metrics.ObserveLogin("rate_limited")
			return auth.Tokens{}, users.User{}, apperr.New(apperr.RateLimited, "too many login attempts, try again later")
		}
	}

	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if apperr.HasKey(err, apperr.InvalidCredentials) {
			s.metrics.ObserveLogin("invalid")
			log.Info("login rejected", map[string]any{"username": username, "client": clientKey})
		}
		return auth.Tokens{}, users.User{}, err
	}

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return auth.Tokens{}, users.User{}, err
	}
	s.metrics.ObserveLogin("success")
	return tokens, u, nil
}

// Refresh implementa auth.Refresher. El token debe tener firma válida y
// seguir en el store; se consume y se emite un par nuevo.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error) {
	claims, _, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return auth.Tokens{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}

	stored, err := s.repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return auth.Tokens{}, apperr.New(apperr.Unauthorized, "refresh token revoked")
		}
		return auth.Tokens{}, apperr.Wrap(apperr.Internal, err)
	}
	if stored.Username != claims.Username || !s.now().Before(stored.ExpiresAt) {
		return auth.Tokens{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}

	// Uso único: si otro request ya lo consumió, este pierde.
	deleted, err := s.repo.Delete(ctx, refreshToken)
	if err != nil {
		return auth.Tokens{}, apperr.Wrap(apperr.Internal, err)
	}
	if !deleted {
		return auth.Tokens{}, apperr.New(apperr.Unauthorized, "refresh token revoked")
	}

	// is_admin se relee del usuario, no del token viejo.
	u, err := s.users.Active(ctx, claims.Username)
	if err != nil {
		return auth.Tokens{}, err
	}
	return s.issue(ctx, u)
}

// Logout borra el refresh token. Un token desconocido no es error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.repo.Delete(ctx, refreshToken); err != nil {
		return apperr.Wrap(apperr.Internal, err)
	}
	return nil
}

// RevokeAll implementa users.SessionRevoker.
func (s *Service) RevokeAll(ctx context.Context, username string) error {
	n, err := s.repo.DeleteByUser(ctx, username)
	if err != nil {
		return err
	}
	logger.FromContext(ctx, s.log).Debug("sessions revoked", map[string]any{
		"username": username,
		"count":    n,
	})
	return nil
}

func (s *Service) issue(ctx context.Context, u users.User) (auth.Tokens, error) {
	tokens, err := s.tokens.Issue(u.Username, u.IsAdmin)
	if err != nil {
		return auth.Tokens{}, apperr.Wrap(apperr.Internal, err)
	}
	err = s.repo.Save(ctx, RefreshToken{
		Token:     tokens.RefreshToken,
		Username:  u.Username,
		CreatedAt: s.now().UTC(),
		ExpiresAt: tokens.RefreshExpiresAt,
	})
	if err != nil {
		return auth.Tokens{}, apperr.Wrap(apperr.Internal, err)
	}
	return tokens, nil
}
