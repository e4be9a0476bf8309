// Package storage elige el backend de persistencia según la config.
package storage

import (
	"context"
	"fmt"

	"pet-health-tracker/internal/adapters/storage/memory"
	"pet-health-tracker/internal/adapters/storage/mongo"
	"pet-health-tracker/internal/adapters/storage/postgres"
	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/domain/sessions"
	"pet-health-tracker/internal/domain/users"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string

	MongoURI string
	MongoDB  string

	PostgresDSN string
}

// Bundle agrupa los repos de un mismo backend.
type Bundle struct {
	Driver      string
	Pets        pets.Repository
	Cascade     pets.CascadeStore
	Records     records.Repository
	Medications medications.Repository
	Users       users.Repository
	Tokens      sessions.Repository

	close func() error
}

func (b *Bundle) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// Open conecta al backend pedido. Driver vacío => memory.
func Open(ctx context.Context, cfg Config) (*Bundle, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return Memory(memory.New()), nil

	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("storage: MONGO_URI required for mongo driver")
		}
		s, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return &Bundle{
			Driver:      DriverMongo,
			Pets:        s.Pets(),
			Cascade:     s,
			Records:     s.Records(),
			Medications: s.Medications(),
			Users:       s.Users(),
			Tokens:      s.Tokens(),
			close:       s.Close,
		}, nil

	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("storage: DB_DSN required for postgres driver")
		}
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s, err := postgres.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Bundle{
			Driver:      DriverPostgres,
			Pets:        s.Pets(),
			Cascade:     s,
			Records:     s.Records(),
			Medications: s.Medications(),
			Users:       s.Users(),
			Tokens:      s.Tokens(),
			close:       s.Close,
		}, nil

	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// Memory arma un Bundle sobre un store en memoria ya creado (tests).
func Memory(s *memory.Store) *Bundle {
	return &Bundle{
		Driver:      DriverMemory,
		Pets:        s.Pets(),
		Cascade:     s,
		Records:     s.Records(),
		Medications: s.Medications(),
		Users:       s.Users(),
		Tokens:      s.Tokens(),
		close:       s.Close,
	}
}
