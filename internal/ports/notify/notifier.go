package notify

import (
	"context"
	"errors"
)

const (
	SubjectPetDeleted   = "pets.deleted"
	SubjectInventoryLow = "medications.inventory_low"
)

// Event es una notificación de dominio. Text es la versión legible (chat).
type Event struct {
	Subject string
	Text    string
	Payload map[string]any
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Noop descarta todo (default en dev/tests).
type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }

// Multi reparte el evento a todos; junta los errores.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
