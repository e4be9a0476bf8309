package sessions

import (
	"context"
	"time"
)

// RefreshToken persistido. Un token ausente del store no sirve aunque su
// firma siga vigente.
type RefreshToken struct {
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Repository devuelve persistence.ErrNotFound en Find si el token no existe.
type Repository interface {
	Save(ctx context.Context, t RefreshToken) error
	Find(ctx context.Context, token string) (RefreshToken, error)
	// Delete informa si el token existía; permite uso único en la rotación.
	Delete(ctx context.Context, token string) (bool, error)
	DeleteByUser(ctx context.Context, username string) (int64, error)
}
