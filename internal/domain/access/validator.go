package access

import (
	"context"
	"errors"
	"strings"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/ids"
	"pet-health-tracker/internal/ports/persistence"
)

// PetACL es lo mínimo de una mascota que hace falta para decidir acceso.
type PetACL struct {
	ID         string
	Owner      string
	SharedWith []string
}

func (p PetACL) IsOwner(username string) bool {
	return username != "" && p.Owner == username
}

// CanAccess: owner o usuario en shared_with (lectura/escritura).
func (p PetACL) CanAccess(username string) bool {
	if p.IsOwner(username) {
		return true
	}
	for _, u := range p.SharedWith {
		if u == username {
			return true
		}
	}
	return false
}

// PetLookup evita importar el paquete pets (rompe ciclos).
// Debe devolver persistence.ErrNotFound si la mascota no existe.
type PetLookup interface {
	LookupPet(ctx context.Context, petID string) (PetACL, error)
}

type Validator struct {
	pets PetLookup
}

func NewValidator(pets PetLookup) *Validator {
	return &Validator{pets: pets}
}

// ValidatePetAccess confirma que username puede leer/escribir sobre petID.
// Una mascota inexistente responde Forbidden igual que "sin acceso":
// así el endpoint no sirve para averiguar qué ids existen.
func (v *Validator) ValidatePetAccess(ctx context.Context, petID, username string) error {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return apperr.New(apperr.MissingParameter, "pet_id is required")
	}
	if !ids.Valid(petID) {
		return apperr.New(apperr.MalformedIdentifier, "invalid pet_id format")
	}

	p, err := v.pets.LookupPet(ctx, petID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return apperr.New(apperr.Forbidden, "no access to this pet")
		}
		return apperr.Wrap(apperr.Internal, err)
	}
	if !p.CanAccess(username) {
		return apperr.New(apperr.Forbidden, "no access to this pet")
	}
	return nil
}

// GetPetAndValidate es la variante para el perfil de la mascota: ahí el
// cliente ya conoce el id, así que reportamos NotFound explícito.
func (v *Validator) GetPetAndValidate(ctx context.Context, petID, username string) (PetACL, error) {
	p, err := v.load(ctx, petID)
	if err != nil {
		return PetACL{}, err
	}
	if !p.CanAccess(username) {
		return PetACL{}, apperr.New(apperr.Forbidden, "no access to this pet")
	}
	return p, nil
}

// OwnerOnly: solo el owner (borrar, compartir).
func (v *Validator) OwnerOnly(ctx context.Context, petID, username string) (PetACL, error) {
	p, err := v.load(ctx, petID)
	if err != nil {
		return PetACL{}, err
	}
	if !p.IsOwner(username) {
		return PetACL{}, apperr.New(apperr.Forbidden, "only the owner can do this")
	}
	return p, nil
}

func (v *Validator) load(ctx context.Context, petID string) (PetACL, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return PetACL{}, apperr.New(apperr.MissingParameter, "pet_id is required")
	}
	if !ids.Valid(petID) {
		return PetACL{}, apperr.New(apperr.MalformedIdentifier, "invalid pet_id format")
	}
	p, err := v.pets.LookupPet(ctx, petID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return PetACL{}, apperr.New(apperr.NotFound, "pet not found")
		}
		return PetACL{}, apperr.Wrap(apperr.Internal, err)
	}
	return p, nil
}

// PetScoped lo implementan los registros que cuelgan de una mascota.
type PetScoped interface {
	PetRef() string
}

// Finder busca un registro por id en su colección.
type Finder[T PetScoped] func(ctx context.Context, id string) (T, error)

// GetRecordAndValidateAccess carga el registro, valida acceso a su mascota y
// devuelve ambos para que el caller no tenga que buscar de nuevo.
func GetRecordAndValidateAccess[T PetScoped](ctx context.Context, v *Validator, recordID string, find Finder[T], username string) (T, string, error) {
	var zero T

	recordID = strings.TrimSpace(recordID)
	if !ids.Valid(recordID) {
		return zero, "", apperr.New(apperr.MalformedIdentifier, "invalid record id format")
	}

	rec, err := find(ctx, recordID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return zero, "", apperr.New(apperr.NotFound, "record not found")
		}
		return zero, "", apperr.Wrap(apperr.Internal, err)
	}

	petID := strings.TrimSpace(rec.PetRef())
	if petID == "" {
		return zero, "", apperr.New(apperr.InvalidRecord)
	}

	if err := v.ValidatePetAccess(ctx, petID, username); err != nil {
		return zero, "", err
	}
	return rec, petID, nil
}
