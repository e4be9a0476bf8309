package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/ports/persistence"
)

// RecordRepo guarda todos los tipos en health_records; la colección es una
// columna y los campos propios van en JSONB.
type RecordRepo struct {
	db *sql.DB
}

var _ records.Repository = (*RecordRepo)(nil)

func scanRecord(row rowScanner) (records.Record, error) {
	var (
		rec    records.Record
		fields []byte
	)
	if err := row.Scan(&rec.ID, &rec.PetID, &rec.DateTime, &rec.Username, &rec.Comment, &fields); err != nil {
		return records.Record{}, err
	}
	rec.DateTime = rec.DateTime.UTC()
	rec.Fields = map[string]any{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &rec.Fields); err != nil {
			return records.Record{}, err
		}
	}
	return rec, nil
}

func (r *RecordRepo) Create(ctx context.Context, collection string, rec records.Record) error {
	fields, err := json.Marshal(nonNil(rec.Fields))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO health_records (id, collection, pet_id, date_time, username, comment, fields)
		VALUES ($1,$2,$3,$4,$5,$6,$7::jsonb)
	`, rec.ID, collection, rec.PetID, rec.DateTime, rec.Username, rec.Comment, string(fields))
	return mapErr(err)
}

func (r *RecordRepo) GetByID(ctx context.Context, collection, id string) (records.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, pet_id, date_time, username, comment, fields
		FROM health_records
		WHERE collection = $1 AND id = $2
	`, collection, id)
	rec, err := scanRecord(row)
	if err != nil {
		return records.Record{}, mapErr(err)
	}
	return rec, nil
}

func (r *RecordRepo) ListByPet(ctx context.Context, collection, petID string, skip, limit int64) ([]records.Record, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM health_records WHERE collection = $1 AND pet_id = $2
	`, collection, petID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pet_id, date_time, username, comment, fields
		FROM health_records
		WHERE collection = $1 AND pet_id = $2
		ORDER BY date_time DESC, id DESC`+pageClause(skip, limit),
		collection, petID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]records.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *RecordRepo) Update(ctx context.Context, collection string, rec records.Record) error {
	fields, err := json.Marshal(nonNil(rec.Fields))
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE health_records
		SET date_time = $3, comment = $4, fields = $5::jsonb
		WHERE collection = $1 AND id = $2
	`, collection, rec.ID, rec.DateTime, rec.Comment, string(fields))
	if err != nil {
		return err
	}
	if affected(res) == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *RecordRepo) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM health_records WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
