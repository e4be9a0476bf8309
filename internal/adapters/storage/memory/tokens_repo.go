package memory

import (
	"context"

	"pet-health-tracker/internal/domain/sessions"
	"pet-health-tracker/internal/ports/persistence"
)

type TokenRepo struct {
	s *Store
}

var _ sessions.Repository = (*TokenRepo)(nil)

func (r *TokenRepo) Save(ctx context.Context, t sessions.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[t.Token] = t
	return nil
}

func (r *TokenRepo) Find(ctx context.Context, token string) (sessions.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[token]
	if !ok {
		return sessions.RefreshToken{}, persistence.ErrNotFound
	}
	return t, nil
}

func (r *TokenRepo) Delete(ctx context.Context, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokens[token]; !ok {
		return false, nil
	}
	delete(r.s.tokens, token)
	return true, nil
}

func (r *TokenRepo) DeleteByUser(ctx context.Context, username string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for k, t := range r.s.tokens {
		if t.Username == username {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}
