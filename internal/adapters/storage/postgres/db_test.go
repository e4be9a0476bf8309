package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"pet-health-tracker/internal/ports/persistence"
)

func TestMapErr(t *testing.T) {
	if mapErr(nil) != nil {
		t.Fatalf("expected nil")
	}
	if !errors.Is(mapErr(sql.ErrNoRows), persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound")
	}
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !errors.Is(mapErr(dup), persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate")
	}
	other := &pgconn.PgError{Code: "23503"}
	if !errors.Is(mapErr(other), other) {
		t.Fatalf("expected the original error")
	}
}

func TestPageClause(t *testing.T) {
	if got := pageClause(0, 0); got != "" {
		t.Fatalf("expected no clause, got %q", got)
	}
	if got := pageClause(20, 10); got != " OFFSET 20 LIMIT 10" {
		t.Fatalf("unexpected clause %q", got)
	}
}

func TestDependentCollectionsEndWithMedications(t *testing.T) {
	s := &Store{}
	cs := s.DependentCollections()
	if len(cs) < 3 {
		t.Fatalf("expected records plus medication collections, got %v", cs)
	}
	if cs[len(cs)-1] != "medications" || cs[len(cs)-2] != "medication_intakes" {
		t.Fatalf("unexpected order %v", cs)
	}
}
