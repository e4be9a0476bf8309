package pets

import (
	"context"

	"pet-health-tracker/internal/domain/access"
)

// LookupPet expone owner/shared_with de una mascota.
// Se usa para evitar ciclos de imports entre módulos (pets <-> access).
func (s *Service) LookupPet(ctx context.Context, petID string) (access.PetACL, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return access.PetACL{}, err
	}
	return access.PetACL{
		ID:         p.ID,
		Owner:      p.Owner,
		SharedWith: p.SharedWith,
	}, nil
}
