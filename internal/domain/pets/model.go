package pets

import "time"

// Species define las especies más comunes. El campo es libre: otras
// especies se guardan tal cual.
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Gender define el sexo de la mascota.
// @Enum male, female, unknown
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Pet representa el perfil de una mascota y su lista de acceso.
type Pet struct {
	ID    string
	Owner string

	Name       string
	Species    Species
	Breed      string
	Gender     Gender
	BirthDate  *time.Time
	IsNeutered bool

	// SharedWith son usernames con acceso completo (no pueden borrar ni compartir).
	SharedWith []string

	// PhotoRef es la key del blob (vacío = sin foto).
	PhotoRef string

	// TilesSettings es configuración de UI opaca para el backend.
	TilesSettings map[string]any

	CreatedAt time.Time
}

// IsSharedWith indica si username figura en shared_with.
func (p Pet) IsSharedWith(username string) bool {
	for _, u := range p.SharedWith {
		if u == username {
			return true
		}
	}
	return false
}

// CollectionOutcome es el resultado del borrado de una colección dependiente.
type CollectionOutcome struct {
	Collection string `json:"collection"`
	Deleted    int64  `json:"deleted"`
	Error      string `json:"error,omitempty"`
}

type DeletionPath string

const (
	PathAtomic     DeletionPath = "atomic"
	PathSequential DeletionPath = "sequential"
)

type PhotoOutcome string

const (
	PhotoNone    PhotoOutcome = "none"
	PhotoDeleted PhotoOutcome = "deleted"
	PhotoFailed  PhotoOutcome = "failed"
)

// DeletionReport resume qué pasó en un borrado en cascada.
type DeletionReport struct {
	PetID       string              `json:"pet_id"`
	Path        DeletionPath        `json:"path"`
	Collections []CollectionOutcome `json:"collections"`
	Photo       PhotoOutcome        `json:"photo"`
}

// Failed devuelve las colecciones que quedaron con datos huérfanos.
func (r DeletionReport) Failed() []string {
	out := make([]string, 0)
	for _, c := range r.Collections {
		if c.Error != "" {
			out = append(out, c.Collection)
		}
	}
	return out
}
