package users

import "context"

// Repository devuelve persistence.ErrNotFound si el usuario no existe y
// persistence.ErrDuplicate si el username ya está tomado.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, username string) (bool, error)
	Count(ctx context.Context) (int64, error)
}
