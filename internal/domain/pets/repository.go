package pets

import "context"

// Repository devuelve persistence.ErrNotFound cuando la mascota no existe.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	// ListAccessible: mascotas donde username es owner o está en shared_with,
	// ordenadas por created_at asc.
	ListAccessible(ctx context.Context, username string) ([]Pet, error)
	Update(ctx context.Context, p Pet) error

	AddSharedUser(ctx context.Context, petID, username string) error
	RemoveSharedUser(ctx context.Context, petID, username string) (bool, error)
	SetPhoto(ctx context.Context, petID, ref string) error
}

// CascadeStore es lo que necesita el borrado en cascada del backend.
type CascadeStore interface {
	// DeletePetCascadeAtomic borra dependientes + mascota en una transacción.
	// Devuelve persistence.ErrTransactionsUnsupported si el backend no puede,
	// y persistence.ErrNotFound (abortando) si la mascota ya no existía.
	DeletePetCascadeAtomic(ctx context.Context, petID string) ([]CollectionOutcome, error)

	DeletePet(ctx context.Context, petID string) (bool, error)
	DeleteByPet(ctx context.Context, collection, petID string) (int64, error)

	// DependentCollections en el orden en que se limpian.
	DependentCollections() []string
}
