package memory

import (
	"context"

	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/ports/persistence"
)

var _ pets.CascadeStore = (*Store)(nil)

func (s *Store) DependentCollections() []string {
	out := records.Collections()
	return append(out, medications.IntakesCollection, medications.Collection)
}

// DeletePetCascadeAtomic corre todo bajo el lock de escritura: nadie ve un
// estado intermedio.
func (s *Store) DeletePetCascadeAtomic(ctx context.Context, petID string) ([]pets.CollectionOutcome, error) {
	if s.noTx {
		return nil, persistence.ErrTransactionsUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[petID]; !ok {
		return nil, persistence.ErrNotFound
	}

	out := make([]pets.CollectionOutcome, 0, len(s.DependentCollections()))
	for _, c := range s.DependentCollections() {
		out = append(out, pets.CollectionOutcome{Collection: c, Deleted: s.deleteByPetLocked(c, petID)})
	}
	delete(s.pets, petID)
	return out, nil
}

func (s *Store) DeletePet(ctx context.Context, petID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[petID]; !ok {
		return false, nil
	}
	delete(s.pets, petID)
	return true, nil
}

func (s *Store) DeleteByPet(ctx context.Context, collection, petID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cleanupErr[collection]; err != nil {
		return 0, err
	}
	return s.deleteByPetLocked(collection, petID), nil
}

func (s *Store) deleteByPetLocked(collection, petID string) int64 {
	var n int64
	switch collection {
	case medications.Collection:
		for id, m := range s.meds {
			if m.PetID == petID {
				delete(s.meds, id)
				n++
			}
		}
	case medications.IntakesCollection:
		for id, in := range s.intakes {
			if in.PetID == petID {
				delete(s.intakes, id)
				n++
			}
		}
	default:
		for id, rec := range s.records[collection] {
			if rec.PetID == petID {
				delete(s.records[collection], id)
				n++
			}
		}
	}
	return n
}
