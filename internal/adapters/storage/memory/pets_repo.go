package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/ports/persistence"
)

type PetRepo struct {
	s *Store
}

var _ pets.Repository = (*PetRepo)(nil)

func clonePet(p pets.Pet) pets.Pet {
	p.SharedWith = slices.Clone(p.SharedWith)
	p.TilesSettings = cloneMap(p.TilesSettings)
	if p.BirthDate != nil {
		t := *p.BirthDate
		p.BirthDate = &t
	}
	return p
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.s.pets[p.ID]; exists {
		return persistence.ErrDuplicate
	}
	r.s.pets[p.ID] = clonePet(p)
	return nil
}

func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.pets[p.ID]; !exists {
		return persistence.ErrNotFound
	}
	r.s.pets[p.ID] = clonePet(p)
	return nil
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.pets[id]
	if !ok {
		return pets.Pet{}, persistence.ErrNotFound
	}
	return clonePet(p), nil
}

func (r *PetRepo) ListAccessible(ctx context.Context, username string) ([]pets.Pet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.s.pets {
		if p.Owner == username || p.IsSharedWith(username) {
			out = append(out, clonePet(p))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *PetRepo) AddSharedUser(ctx context.Context, petID, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.pets[petID]
	if !ok {
		return persistence.ErrNotFound
	}
	if !p.IsSharedWith(username) {
		p.SharedWith = append(slices.Clone(p.SharedWith), username)
		r.s.pets[petID] = p
	}
	return nil
}

func (r *PetRepo) RemoveSharedUser(ctx context.Context, petID, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.pets[petID]
	if !ok {
		return false, persistence.ErrNotFound
	}
	idx := slices.Index(p.SharedWith, username)
	if idx < 0 {
		return false, nil
	}
	p.SharedWith = slices.Delete(slices.Clone(p.SharedWith), idx, idx+1)
	r.s.pets[petID] = p
	return true, nil
}

func (r *PetRepo) SetPhoto(ctx context.Context, petID, ref string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.pets[petID]
	if !ok {
		return persistence.ErrNotFound
	}
	p.PhotoRef = ref
	r.s.pets[petID] = p
	return nil
}
