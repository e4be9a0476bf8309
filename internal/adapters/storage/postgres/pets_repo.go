package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/ports/persistence"
)

type PetRepo struct {
	db *sql.DB
}

var _ pets.Repository = (*PetRepo)(nil)

// shared_with se arma como JSON para leerlo en la misma fila.
const petColumns = `
	p.id, p.owner, p.name, p.species, p.breed, p.gender,
	p.birth_date, p.is_neutered, p.photo_ref, p.tiles_settings, p.created_at,
	COALESCE((SELECT json_agg(s.username ORDER BY s.username) FROM pet_shares s WHERE s.pet_id = p.id), '[]')::text
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var (
		p       pets.Pet
		species string
		gender  string
		bd      sql.NullTime
		tiles   []byte
		shared  string
	)
	if err := row.Scan(
		&p.ID, &p.Owner, &p.Name, &species, &p.Breed, &gender,
		&bd, &p.IsNeutered, &p.PhotoRef, &tiles, &p.CreatedAt,
		&shared,
	); err != nil {
		return pets.Pet{}, err
	}

	p.Species = pets.Species(species)
	p.Gender = pets.Gender(gender)
	p.CreatedAt = p.CreatedAt.UTC()
	if bd.Valid {
		// birth_date es DATE: pgx lo trae como medianoche.
		t := time.Date(bd.Time.Year(), bd.Time.Month(), bd.Time.Day(), 0, 0, 0, 0, time.UTC)
		p.BirthDate = &t
	}
	if len(tiles) > 0 {
		if err := json.Unmarshal(tiles, &p.TilesSettings); err != nil {
			return pets.Pet{}, err
		}
	}
	if err := json.Unmarshal([]byte(shared), &p.SharedWith); err != nil {
		return pets.Pet{}, err
	}
	return p, nil
}

func toNullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func toJSONB(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *PetRepo) Create(ctx context.Context, p pets.Pet) error {
	tiles, err := toJSONB(p.TilesSettings)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pets (
			id, owner, name, species, breed, gender,
			birth_date, is_neutered, photo_ref, tiles_settings, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10::jsonb,$11)
	`,
		p.ID, p.Owner, p.Name, string(p.Species), p.Breed, string(p.Gender),
		toNullDate(p.BirthDate), p.IsNeutered, p.PhotoRef, tiles, p.CreatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	for _, u := range p.SharedWith {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pet_shares (pet_id, username) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, p.ID, u); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Update no toca shared_with ni photo_ref: tienen sus propias operaciones.
func (r *PetRepo) Update(ctx context.Context, p pets.Pet) error {
	tiles, err := toJSONB(p.TilesSettings)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			gender = $5,
			birth_date = $6,
			is_neutered = $7,
			tiles_settings = $8::jsonb
		WHERE id = $1
	`,
		p.ID, p.Name, string(p.Species), p.Breed, string(p.Gender),
		toNullDate(p.BirthDate), p.IsNeutered, tiles,
	)
	if err != nil {
		return err
	}
	if affected(res) == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *PetRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, persistence.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets p WHERE p.id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, mapErr(err)
	}
	return p, nil
}

func (r *PetRepo) ListAccessible(ctx context.Context, username string) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets p
		WHERE p.owner = $1
		   OR EXISTS (SELECT 1 FROM pet_shares s WHERE s.pet_id = p.id AND s.username = $1)
		ORDER BY p.created_at ASC, p.id ASC
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetRepo) AddSharedUser(ctx context.Context, petID, username string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pet_shares (pet_id, username)
		SELECT id, $2 FROM pets WHERE id = $1
		ON CONFLICT DO NOTHING
	`, petID, username)
	return err
}

func (r *PetRepo) RemoveSharedUser(ctx context.Context, petID, username string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pet_shares WHERE pet_id = $1 AND username = $2`, petID, username)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (r *PetRepo) SetPhoto(ctx context.Context, petID, ref string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE pets SET photo_ref = $2 WHERE id = $1`, petID, ref)
	if err != nil {
		return err
	}
	if affected(res) == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
