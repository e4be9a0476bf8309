// Package memory implementa los repositorios en memoria. Todas las
// colecciones comparten un único lock, así que el borrado en cascada es
// atómico sin transacciones reales.
package memory

import (
	"sync"

	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/domain/sessions"
	"pet-health-tracker/internal/domain/users"
)

type Store struct {
	mu sync.RWMutex

	pets    map[string]pets.Pet
	records map[string]map[string]records.Record // colección -> id -> registro
	meds    map[string]medications.Medication
	intakes map[string]medications.Intake
	users   map[string]users.User // por username
	tokens  map[string]sessions.RefreshToken

	// noTx simula un backend sin transacciones (mongod standalone).
	noTx bool
	// cleanupErr fuerza fallas en DeleteByPet por colección (tests).
	cleanupErr map[string]error
}

type Option func(*Store)

// WithoutTransactions hace que DeletePetCascadeAtomic devuelva
// persistence.ErrTransactionsUnsupported.
func WithoutTransactions() Option {
	return func(s *Store) { s.noTx = true }
}

// FailCleanup hace fallar DeleteByPet para la colección dada.
func FailCleanup(collection string, err error) Option {
	return func(s *Store) { s.cleanupErr[collection] = err }
}

func New(opts ...Option) *Store {
	s := &Store{
		pets:       make(map[string]pets.Pet),
		records:    make(map[string]map[string]records.Record),
		meds:       make(map[string]medications.Medication),
		intakes:    make(map[string]medications.Intake),
		users:      make(map[string]users.User),
		tokens:     make(map[string]sessions.RefreshToken),
		cleanupErr: make(map[string]error),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Pets() *PetRepo               { return &PetRepo{s: s} }
func (s *Store) Records() *RecordRepo         { return &RecordRepo{s: s} }
func (s *Store) Medications() *MedicationRepo { return &MedicationRepo{s: s} }
func (s *Store) Users() *UserRepo             { return &UserRepo{s: s} }
func (s *Store) Tokens() *TokenRepo           { return &TokenRepo{s: s} }

func (s *Store) Close() error { return nil }

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
