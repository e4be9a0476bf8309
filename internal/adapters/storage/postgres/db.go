// Package postgres implementa los repositorios sobre PostgreSQL (pgx vía
// database/sql).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pet-health-tracker/internal/ports/persistence"
)

const uniqueViolation = "23505"

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

type Store struct {
	db *sql.DB
}

// New envuelve un pool ya abierto y aplica el schema.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Pets() *PetRepo               { return &PetRepo{db: s.db} }
func (s *Store) Records() *RecordRepo         { return &RecordRepo{db: s.db} }
func (s *Store) Medications() *MedicationRepo { return &MedicationRepo{db: s.db} }
func (s *Store) Users() *UserRepo             { return &UserRepo{db: s.db} }
func (s *Store) Tokens() *TokenRepo           { return &TokenRepo{db: s.db} }

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return persistence.ErrDuplicate
	}
	return err
}

// pageClause traduce skip/limit a OFFSET/LIMIT. limit <= 0 => sin LIMIT.
func pageClause(skip, limit int64) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" OFFSET %d LIMIT %d", skip, limit)
}

func affected(res sql.Result) int64 {
	n, _ := res.RowsAffected()
	return n
}
