package medications

import (
	"sort"
	"time"
)

const (
	Collection        = "medications"
	IntakesCollection = "medication_intakes"
)

// Schedule: días de la semana (0=domingo..6) y horas HH:MM.
type Schedule struct {
	Days  []int    `json:"days" validate:"dive,min=0,max=6"`
	Times []string `json:"times" validate:"dive,hhmm"`
}

// Normalize deja days como conjunto ordenado y times ordenados sin repetir.
func (s Schedule) Normalize() Schedule {
	seenD := map[int]bool{}
	days := make([]int, 0, len(s.Days))
	for _, d := range s.Days {
		if !seenD[d] {
			seenD[d] = true
			days = append(days, d)
		}
	}
	sort.Ints(days)

	seenT := map[string]bool{}
	times := make([]string, 0, len(s.Times))
	for _, t := range s.Times {
		if !seenT[t] {
			seenT[t] = true
			times = append(times, t)
		}
	}
	sort.Strings(times)

	return Schedule{Days: days, Times: times}
}

// Medication es un medicamento de una mascota con inventario opcional.
// Invariante: InventoryCurrent nunca es negativo.
type Medication struct {
	ID    string
	PetID string
	Owner string // quién lo creó

	Name     string
	Type     string // "pill", "drops", ...
	Dosage   string // "2"
	Unit     string // "ml", "mg", etc.
	Schedule Schedule
	Comment  string

	InventoryEnabled          bool
	InventoryTotal            *float64
	InventoryCurrent          *float64
	InventoryWarningThreshold *float64

	IsActive  bool
	CreatedAt time.Time
}

func (m Medication) PetRef() string { return m.PetID }

// TracksInventory: el stock solo se mueve si está habilitado y tiene valor.
func (m Medication) TracksInventory() bool {
	return m.InventoryEnabled && m.InventoryCurrent != nil
}

// Intake es una toma registrada de un medicamento.
type Intake struct {
	ID           string
	MedicationID string
	PetID        string
	DateTime     time.Time
	DoseTaken    float64
	Username     string
	Comment      string
	CreatedAt    time.Time
}

func (i Intake) PetRef() string { return i.PetID }

// IntakeStats resume las tomas de un medicamento en un día.
type IntakeStats struct {
	TodayCount  int64
	LastTakenAt *time.Time
}

// View es lo que devuelve el listado por mascota.
type View struct {
	Medication
	IntakesToday int64
	LastTakenAt  *time.Time
}
