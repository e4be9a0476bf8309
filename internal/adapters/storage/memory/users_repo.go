package memory

import (
	"context"
	"sort"

	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/ports/persistence"
)

type UserRepo struct {
	s *Store
}

var _ users.Repository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[u.Username]; exists {
		return persistence.ErrDuplicate
	}
	r.s.users[u.Username] = u
	return nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[username]
	if !ok {
		return users.User{}, persistence.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]users.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *UserRepo) Update(ctx context.Context, u users.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.Username]; !ok {
		return persistence.ErrNotFound
	}
	r.s.users[u.Username] = u
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[username]; !ok {
		return false, nil
	}
	delete(r.s.users, username)
	return true, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}
