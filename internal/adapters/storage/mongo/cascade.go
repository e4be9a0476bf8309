package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/ports/persistence"
)

var _ pets.CascadeStore = (*Store)(nil)

// codeIllegalOperation es lo que responde un mongod standalone al abrir una
// transacción.
const codeIllegalOperation = 20

func (s *Store) DependentCollections() []string {
	out := records.Collections()
	return append(out, medications.IntakesCollection, medications.Collection)
}

func (s *Store) DeletePetCascadeAtomic(ctx context.Context, petID string) ([]pets.CollectionOutcome, error) {
	o, err := oid(petID)
	if err != nil {
		return nil, err
	}

	sess, err := s.client.StartSession()
	if err != nil {
		if transactionsUnsupported(err) {
			return nil, persistence.ErrTransactionsUnsupported
		}
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		outcomes := make([]pets.CollectionOutcome, 0, len(s.DependentCollections()))
		for _, c := range s.DependentCollections() {
			dr, err := s.db.Collection(c).DeleteMany(sc, bson.M{"pet_id": petID})
			if err != nil {
				return nil, fmt.Errorf("delete %s: %w", c, err)
			}
			outcomes = append(outcomes, pets.CollectionOutcome{Collection: c, Deleted: dr.DeletedCount})
		}

		dr, err := s.db.Collection(petsCollection).DeleteOne(sc, bson.M{"_id": o})
		if err != nil {
			return nil, fmt.Errorf("delete pet: %w", err)
		}
		if dr.DeletedCount == 0 {
			return nil, persistence.ErrNotFound
		}
		return outcomes, nil
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, persistence.ErrNotFound
		}
		if transactionsUnsupported(err) {
			return nil, persistence.ErrTransactionsUnsupported
		}
		return nil, err
	}
	return res.([]pets.CollectionOutcome), nil
}

func (s *Store) DeletePet(ctx context.Context, petID string) (bool, error) {
	o, err := oid(petID)
	if err != nil {
		return false, nil
	}
	res, err := s.db.Collection(petsCollection).DeleteOne(ctx, bson.M{"_id": o})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) DeleteByPet(ctx context.Context, collection, petID string) (int64, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, bson.M{"pet_id": petID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// transactionsUnsupported reconoce los errores de un servidor sin replica set.
func transactionsUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == codeIllegalOperation {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "transaction numbers are only allowed") ||
		strings.Contains(msg, "replica set") ||
		strings.Contains(msg, "sessions are not supported")
}
