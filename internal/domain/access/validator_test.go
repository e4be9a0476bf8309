package access

import (
	"context"
	"errors"
	"testing"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/ports/persistence"
)

// -------------------------
// Test lookup (in-memory)
// -------------------------

type testPets struct {
	byID map[string]PetACL
	err  error
}

func (p *testPets) LookupPet(ctx context.Context, petID string) (PetACL, error) {
	if p.err != nil {
		return PetACL{}, p.err
	}
	acl, ok := p.byID[petID]
	if !ok {
		return PetACL{}, persistence.ErrNotFound
	}
	return acl, nil
}

type testRecord struct {
	ID    string
	PetID string
}

func (r testRecord) PetRef() string { return r.PetID }

const (
	petA    = "65a1b2c3d4e5f6a7b8c9d0e1"
	petB    = "65a1b2c3d4e5f6a7b8c9d0e2"
	missing = "65a1b2c3d4e5f6a7b8c9d0ff"
	recA    = "75a1b2c3d4e5f6a7b8c9d0e1"
	recBad  = "75a1b2c3d4e5f6a7b8c9d0e2"
)

func newValidator() *Validator {
	return NewValidator(&testPets{byID: map[string]PetACL{
		petA: {ID: petA, Owner: "alice", SharedWith: []string{"bob"}},
		petB: {ID: petB, Owner: "carol"},
	}})
}

func TestValidatePetAccess(t *testing.T) {
	v := newValidator()
	ctx := context.Background()

	cases := []struct {
		name  string
		petID string
		user  string
		want  apperr.Key
	}{
		{"owner", petA, "alice", ""},
		{"shared", petA, "bob", ""},
		{"stranger", petA, "mallory", apperr.Forbidden},
		{"empty", "", "alice", apperr.MissingParameter},
		{"malformed", "not-an-id", "alice", apperr.MalformedIdentifier},
		{"short hex", "65a1b2c3", "alice", apperr.MalformedIdentifier},
		{"absent pet", missing, "alice", apperr.Forbidden},
	}

	for _, tc := range cases {
		err := v.ValidatePetAccess(ctx, tc.petID, tc.user)
		if tc.want == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if !apperr.HasKey(err, tc.want) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.want, err)
		}
	}
}

func TestValidatePetAccess_StorageError(t *testing.T) {
	v := NewValidator(&testPets{err: errors.New("boom")})
	err := v.ValidatePetAccess(context.Background(), petA, "alice")
	if !apperr.HasKey(err, apperr.Internal) {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestGetPetAndValidate_NotFound(t *testing.T) {
	v := newValidator()
	if _, err := v.GetPetAndValidate(context.Background(), missing, "alice"); !apperr.HasKey(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	acl, err := v.GetPetAndValidate(context.Background(), petA, "bob")
	if err != nil || acl.Owner != "alice" {
		t.Fatalf("unexpected %+v %v", acl, err)
	}
}

func TestOwnerOnly(t *testing.T) {
	v := newValidator()
	ctx := context.Background()

	if _, err := v.OwnerOnly(ctx, petA, "alice"); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if _, err := v.OwnerOnly(ctx, petA, "bob"); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("shared user must not act as owner, got %v", err)
	}
	if _, err := v.OwnerOnly(ctx, missing, "alice"); !apperr.HasKey(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetRecordAndValidateAccess(t *testing.T) {
	v := newValidator()
	ctx := context.Background()

	store := map[string]testRecord{
		recA:   {ID: recA, PetID: petA},
		recBad: {ID: recBad},
	}
	find := func(ctx context.Context, id string) (testRecord, error) {
		r, ok := store[id]
		if !ok {
			return testRecord{}, persistence.ErrNotFound
		}
		return r, nil
	}

	rec, petID, err := GetRecordAndValidateAccess(ctx, v, recA, find, "bob")
	if err != nil || rec.ID != recA || petID != petA {
		t.Fatalf("unexpected %+v %q %v", rec, petID, err)
	}

	if _, _, err := GetRecordAndValidateAccess(ctx, v, "xyz", find, "alice"); !apperr.HasKey(err, apperr.MalformedIdentifier) {
		t.Fatalf("expected MalformedIdentifier, got %v", err)
	}
	if _, _, err := GetRecordAndValidateAccess(ctx, v, missing, find, "alice"); !apperr.HasKey(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if _, _, err := GetRecordAndValidateAccess(ctx, v, recBad, find, "alice"); !apperr.HasKey(err, apperr.InvalidRecord) {
		t.Fatalf("expected InvalidRecord, got %v", err)
	}
	if _, _, err := GetRecordAndValidateAccess(ctx, v, recA, find, "mallory"); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}
