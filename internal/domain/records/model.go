package records

import (
	"time"

	"pet-health-tracker/internal/platform/dates"
)

// Record es un evento de salud de una mascota en una colección por tipo.
type Record struct {
	ID       string
	PetID    string
	DateTime time.Time
	Username string // quién lo registró
	Comment  string

	// Fields son los campos propios del Kind, ya validados.
	Fields map[string]any
}

func (r Record) PetRef() string { return r.PetID }

// ToResponse aplana el registro al formato de la API.
func ToResponse(r Record) map[string]any {
	out := make(map[string]any, len(r.Fields)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["_id"] = r.ID
	out["pet_id"] = r.PetID
	out["date_time"] = dates.Format(r.DateTime)
	out["username"] = r.Username
	out["comment"] = r.Comment
	return out
}
