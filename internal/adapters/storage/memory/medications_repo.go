package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/ports/persistence"
)

type MedicationRepo struct {
	s *Store
}

var _ medications.Repository = (*MedicationRepo)(nil)

func cloneMedication(m medications.Medication) medications.Medication {
	m.Schedule.Days = slices.Clone(m.Schedule.Days)
	m.Schedule.Times = slices.Clone(m.Schedule.Times)
	m.InventoryTotal = cloneFloat(m.InventoryTotal)
	m.InventoryCurrent = cloneFloat(m.InventoryCurrent)
	m.InventoryWarningThreshold = cloneFloat(m.InventoryWarningThreshold)
	return m
}

func (r *MedicationRepo) Create(ctx context.Context, m medications.Medication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.meds[m.ID]; exists {
		return persistence.ErrDuplicate
	}
	r.s.meds[m.ID] = cloneMedication(m)
	return nil
}

func (r *MedicationRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.meds[id]
	if !ok {
		return medications.Medication{}, persistence.ErrNotFound
	}
	return cloneMedication(m), nil
}

func (r *MedicationRepo) ListByPet(ctx context.Context, petID string) ([]medications.Medication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]medications.Medication, 0)
	for _, m := range r.s.meds {
		if m.PetID == petID {
			out = append(out, cloneMedication(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MedicationRepo) Update(ctx context.Context, m medications.Medication) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.meds[m.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.s.meds[m.ID] = cloneMedication(m)
	return nil
}

func (r *MedicationRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.meds[id]; !ok {
		return false, nil
	}
	delete(r.s.meds, id)
	for iid, in := range r.s.intakes {
		if in.MedicationID == id {
			delete(r.s.intakes, iid)
		}
	}
	return true, nil
}

func (r *MedicationRepo) CreateIntake(ctx context.Context, in medications.Intake) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.intakes[in.ID]; exists {
		return persistence.ErrDuplicate
	}
	r.s.intakes[in.ID] = in
	return nil
}

func (r *MedicationRepo) GetIntake(ctx context.Context, id string) (medications.Intake, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	in, ok := r.s.intakes[id]
	if !ok {
		return medications.Intake{}, persistence.ErrNotFound
	}
	return in, nil
}

func (r *MedicationRepo) ListIntakes(ctx context.Context, medicationID string, skip, limit int64) ([]medications.Intake, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]medications.Intake, 0)
	for _, in := range r.s.intakes {
		if in.MedicationID == medicationID {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DateTime.Equal(out[j].DateTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].DateTime.After(out[j].DateTime)
	})

	total := int64(len(out))
	return window(out, skip, limit), total, nil
}

func (r *MedicationRepo) DeleteIntake(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.intakes[id]; !ok {
		return false, nil
	}
	delete(r.s.intakes, id)
	return true, nil
}

func (r *MedicationRepo) DebitInventory(ctx context.Context, medicationID string, amount float64) (*float64, error) {
	return r.adjust(medicationID, -amount)
}

func (r *MedicationRepo) CreditInventory(ctx context.Context, medicationID string, amount float64) (*float64, error) {
	return r.adjust(medicationID, amount)
}

// adjust suma delta al stock con piso en 0. Sin stock => nil.
func (r *MedicationRepo) adjust(medicationID string, delta float64) (*float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.meds[medicationID]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	if m.InventoryCurrent == nil {
		return nil, nil
	}
	v := max(*m.InventoryCurrent+delta, 0)
	m.InventoryCurrent = &v
	r.s.meds[medicationID] = m
	return cloneFloat(&v), nil
}

func (r *MedicationRepo) IntakeStats(ctx context.Context, medicationIDs []string, from, to time.Time) (map[string]medications.IntakeStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[string]medications.IntakeStats, len(medicationIDs))
	for _, id := range medicationIDs {
		out[id] = medications.IntakeStats{}
	}
	for _, in := range r.s.intakes {
		st, ok := out[in.MedicationID]
		if !ok {
			continue
		}
		if !in.DateTime.Before(from) && in.DateTime.Before(to) {
			st.TodayCount++
		}
		if st.LastTakenAt == nil || in.DateTime.After(*st.LastTakenAt) {
			t := in.DateTime
			st.LastTakenAt = &t
		}
		out[in.MedicationID] = st
	}
	return out, nil
}
