package postgres

import (
	"context"
	"database/sql"

	"pet-health-tracker/internal/domain/users"
)

type UserRepo struct {
	db *sql.DB
}

var _ users.Repository = (*UserRepo)(nil)

const userColumns = `id, username, password_hash, full_name, email, is_active, is_admin, created_by, created_at`

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.IsActive, &u.IsAdmin, &u.CreatedBy, &u.CreatedAt); err != nil {
		return users.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, u.ID, u.Username, u.PasswordHash, u.FullName, u.Email, u.IsActive, u.IsAdmin, u.CreatedBy, u.CreatedAt)
	return mapErr(err)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return users.User{}, mapErr(err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, u users.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			password_hash = $2,
			full_name = $3,
			email = $4,
			is_active = $5,
			is_admin = $6
		WHERE username = $1
	`, u.Username, u.PasswordHash, u.FullName, u.Email, u.IsActive, u.IsAdmin)
	if err != nil {
		return err
	}
	if affected(res) == 0 {
		return mapErr(sql.ErrNoRows)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, username string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
