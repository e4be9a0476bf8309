// Package mongo implementa los repositorios sobre MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/ports/persistence"
)

const (
	petsCollection   = "pets"
	usersCollection  = "users"
	tokensCollection = "refresh_tokens"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open conecta, hace ping y asegura índices.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Pets() *PetRepo               { return &PetRepo{col: s.db.Collection(petsCollection)} }
func (s *Store) Records() *RecordRepo         { return &RecordRepo{db: s.db} }
func (s *Store) Medications() *MedicationRepo { return newMedicationRepo(s.db) }
func (s *Store) Users() *UserRepo             { return &UserRepo{col: s.db.Collection(usersCollection)} }
func (s *Store) Tokens() *TokenRepo           { return &TokenRepo{col: s.db.Collection(tokensCollection)} }

func (s *Store) ensureIndexes(ctx context.Context) error {
	type indexDef struct {
		collection string
		model      mongo.IndexModel
	}
	defs := []indexDef{
		{usersCollection, mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{tokensCollection, mongo.IndexModel{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{tokensCollection, mongo.IndexModel{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)}},
		{petsCollection, mongo.IndexModel{Keys: bson.D{{Key: "owner", Value: 1}}}},
		{petsCollection, mongo.IndexModel{Keys: bson.D{{Key: "shared_with", Value: 1}}}},
		{medications.Collection, mongo.IndexModel{Keys: bson.D{{Key: "pet_id", Value: 1}}}},
		{medications.IntakesCollection, mongo.IndexModel{Keys: bson.D{{Key: "medication_id", Value: 1}, {Key: "date_time", Value: -1}}}},
		{medications.IntakesCollection, mongo.IndexModel{Keys: bson.D{{Key: "pet_id", Value: 1}}}},
	}
	for _, c := range records.Collections() {
		defs = append(defs, indexDef{c, mongo.IndexModel{Keys: bson.D{{Key: "pet_id", Value: 1}, {Key: "date_time", Value: -1}}}})
	}

	for _, d := range defs {
		if _, err := s.db.Collection(d.collection).Indexes().CreateOne(ctx, d.model); err != nil {
			return fmt.Errorf("create index on %s: %w", d.collection, err)
		}
	}
	return nil
}

// oid convierte el id hex. Un id inválido no puede existir: ErrNotFound.
func oid(id string) (primitive.ObjectID, error) {
	o, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, persistence.ErrNotFound
	}
	return o, nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return persistence.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return persistence.ErrDuplicate
	}
	return err
}

// listWindow arma las opciones de Find para skip/limit. limit <= 0 => todo.
func listWindow(sort bson.D, skip, limit int64) *options.FindOptions {
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetSkip(skip).SetLimit(limit)
	}
	return opts
}
