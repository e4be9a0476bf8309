package postgres

import (
	"context"
	"database/sql"
	"fmt"

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

func (s *Store) DeletePetCascadeAtomic(ctx context.Context, petID string) ([]pets.CollectionOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	outcomes := make([]pets.CollectionOutcome, 0, len(s.DependentCollections()))
	for _, c := range s.DependentCollections() {
		n, err := deleteByPet(ctx, tx, c, petID)
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", c, err)
		}
		outcomes = append(outcomes, pets.CollectionOutcome{Collection: c, Deleted: n})
	}

	// pet_shares cae por ON DELETE CASCADE.
	res, err := tx.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, petID)
	if err != nil {
		return nil, fmt.Errorf("delete pet: %w", err)
	}
	if affected(res) == 0 {
		return nil, persistence.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return outcomes, nil
}

func (s *Store) DeletePet(ctx context.Context, petID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, petID)
	if err != nil {
		return false, err
	}
	return affected(res) > 0, nil
}

func (s *Store) DeleteByPet(ctx context.Context, collection, petID string) (int64, error) {
	return deleteByPet(ctx, s.db, collection, petID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func deleteByPet(ctx context.Context, ex execer, collection, petID string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	switch collection {
	case medications.Collection:
		res, err = ex.ExecContext(ctx, `DELETE FROM medications WHERE pet_id = $1`, petID)
	case medications.IntakesCollection:
		res, err = ex.ExecContext(ctx, `DELETE FROM medication_intakes WHERE pet_id = $1`, petID)
	default:
		res, err = ex.ExecContext(ctx, `DELETE FROM health_records WHERE collection = $1 AND pet_id = $2`, collection, petID)
	}
	if err != nil {
		return 0, err
	}
	return affected(res), nil
}
