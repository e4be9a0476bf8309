package medications

import (
	"context"
	"time"
)

// Repository devuelve persistence.ErrNotFound en los Get cuando no existe.
type Repository interface {
	Create(ctx context.Context, m Medication) error
	GetByID(ctx context.Context, id string) (Medication, error)
	ListByPet(ctx context.Context, petID string) ([]Medication, error)
	Update(ctx context.Context, m Medication) error
	// Delete borra también las tomas del medicamento.
	Delete(ctx context.Context, id string) (bool, error)

	CreateIntake(ctx context.Context, in Intake) error
	GetIntake(ctx context.Context, id string) (Intake, error)
	// ListIntakes ordena por date_time desc. limit <= 0 => sin límite.
	ListIntakes(ctx context.Context, medicationID string, skip, limit int64) ([]Intake, int64, error)
	DeleteIntake(ctx context.Context, id string) (bool, error)

	// DebitInventory resta amount sin bajar de 0, en una sola operación.
	// Devuelve el stock resultante (nil si el medicamento no tiene stock).
	DebitInventory(ctx context.Context, medicationID string, amount float64) (*float64, error)
	// CreditInventory suma amount sin tope.
	CreditInventory(ctx context.Context, medicationID string, amount float64) (*float64, error)

	// IntakeStats cuenta tomas en [from, to) y la última toma, por medicamento.
	IntakeStats(ctx context.Context, medicationIDs []string, from, to time.Time) (map[string]IntakeStats, error)
}
