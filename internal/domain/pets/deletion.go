package pets

import (
	"context"
	"errors"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/ports/notify"
	"pet-health-tracker/internal/ports/persistence"
)

type deletionState int

const (
	stateAttemptAtomic deletionState = iota
	stateFallbackSequential
	stateBestEffortCleanup
	stateCommitted
)

func (s deletionState) String() string {
	switch s {
	case stateAttemptAtomic:
		return "attempt_atomic"
	case stateFallbackSequential:
		return "fallback_sequential"
	case stateBestEffortCleanup:
		return "best_effort_cleanup"
	case stateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Delete borra la mascota y todo lo que cuelga de ella. Solo el owner.
//
//	AttemptAtomic -> Committed
//	AttemptAtomic -> FallbackSequential -> BestEffortCleanup -> Committed
//
// En el camino secuencial la mascota se borra primero: si algo falla después
// quedan huérfanos (reportados), nunca una mascota a medio borrar.
// La foto se borra fuera de la transacción y su falla solo se loguea.
func (s *Service) Delete(ctx context.Context, petID, username string) (DeletionReport, error) {
	acl, err := s.access.OwnerOnly(ctx, petID, username)
	if err != nil {
		return DeletionReport{}, err
	}

	// La foto se lee antes: después del borrado ya no hay documento.
	pet, err := s.load(ctx, petID)
	if err != nil {
		return DeletionReport{}, err
	}

	log := logger.FromContext(ctx, s.log).With(map[string]any{"pet_id": acl.ID})
	report := DeletionReport{PetID: acl.ID, Photo: PhotoNone}

	state := stateAttemptAtomic
	for state != stateCommitted {
		log.Debug("pet deletion step", map[string]any{"state": state.String()})
		switch state {
		case stateAttemptAtomic:
			outcomes, err := s.cascade.DeletePetCascadeAtomic(ctx, acl.ID)
			switch {
			case err == nil:
				report.Path = PathAtomic
				report.Collections = outcomes
				state = stateCommitted
			case errors.Is(err, persistence.ErrTransactionsUnsupported):
				log.Info("transactions unsupported, deleting sequentially", nil)
				state = stateFallbackSequential
			case errors.Is(err, persistence.ErrNotFound):
				// Otro request la borró entre el chequeo y la transacción.
				return DeletionReport{}, apperr.New(apperr.NotFound, "pet not found")
			default:
				return DeletionReport{}, apperr.Wrap(apperr.Internal, err)
			}

		case stateFallbackSequential:
			deleted, err := s.cascade.DeletePet(ctx, acl.ID)
			if err != nil {
				return DeletionReport{}, apperr.Wrap(apperr.Internal, err)
			}
			if !deleted {
				return DeletionReport{}, apperr.New(apperr.NotFound, "pet not found")
			}
			report.Path = PathSequential
			state = stateBestEffortCleanup

		case stateBestEffortCleanup:
			for _, c := range s.cascade.DependentCollections() {
				n, err := s.cascade.DeleteByPet(ctx, c, acl.ID)
				out := CollectionOutcome{Collection: c, Deleted: n}
				if err != nil {
					out.Error = err.Error()
					log.Error("cascade cleanup failed", map[string]any{
						"collection": c,
						"err":        err,
					})
				}
				report.Collections = append(report.Collections, out)
			}
			state = stateCommitted
		}
	}

	if pet.PhotoRef != "" && s.photos != nil {
		if _, err := s.photos.Delete(ctx, pet.PhotoRef); err != nil {
			report.Photo = PhotoFailed
			log.Warn("photo delete failed", map[string]any{"key": pet.PhotoRef, "err": err})
		} else {
			report.Photo = PhotoDeleted
		}
	}

	s.metrics.ObserveDeletion(string(report.Path), report.Failed())
	log.Info("pet deleted", map[string]any{
		"path":   report.Path,
		"failed": report.Failed(),
	})

	s.notify(ctx, notify.Event{
		Subject: notify.SubjectPetDeleted,
		Text:    "Pet " + pet.Name + " was deleted by " + username,
		Payload: map[string]any{
			"pet_id":   acl.ID,
			"name":     pet.Name,
			"owner":    username,
			"path":     report.Path,
			"orphaned": report.Failed(),
		},
	})

	return report, nil
}
