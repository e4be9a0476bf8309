package postgres

import (
	"context"
	"database/sql"

	"pet-health-tracker/internal/domain/sessions"
)

type TokenRepo struct {
	db *sql.DB
}

var _ sessions.Repository = (*TokenRepo)(nil)

func (r *TokenRepo) Save(ctx context.Context, t sessions.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, username, created_at, expires_at)
		VALUES ($1,$2,$3,$4)
	`, t.Token, t.Username, t.CreatedAt, t.ExpiresAt)
	return mapErr(err)
}

func (r *TokenRepo) Find(ctx context.Context, token string) (sessions.RefreshToken, error) {
	var t sessions.RefreshToken
	err := r.db.QueryRowContext(ctx, `
		SELECT token, username, created_at, expires_at
		FROM refresh_tokens
		WHERE token = $1
	`, token).Scan(&t.Token, &t.Username, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		return sessions.RefreshToken{}, mapErr(err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()
	return t, nil
}

func (r *TokenRepo) Delete(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *TokenRepo) DeleteByUser(ctx context.Context, username string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE username = $1`, username)
	if err != nil {
		return 0, err
	}
	return affected(res), nil
}

