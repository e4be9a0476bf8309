package records

import "context"

// Repository guarda registros por colección (una por Kind).
// GetByID devuelve persistence.ErrNotFound cuando no existe.
type Repository interface {
	Create(ctx context.Context, collection string, r Record) error
	GetByID(ctx context.Context, collection, id string) (Record, error)
	// ListByPet ordena por date_time desc y devuelve además el total.
	// limit <= 0 => sin límite.
	ListByPet(ctx context.Context, collection, petID string, skip, limit int64) ([]Record, int64, error)
	Update(ctx context.Context, collection string, r Record) error
	Delete(ctx context.Context, collection, id string) (bool, error)
}
