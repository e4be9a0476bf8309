package memory

import (
	"context"
	"sort"

	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/platform/paging"
	"pet-health-tracker/internal/ports/persistence"
)

type RecordRepo struct {
	s *Store
}

var _ records.Repository = (*RecordRepo)(nil)

func cloneRecord(r records.Record) records.Record {
	r.Fields = cloneMap(r.Fields)
	return r
}

func (r *RecordRepo) Create(ctx context.Context, collection string, rec records.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	col, ok := r.s.records[collection]
	if !ok {
		col = make(map[string]records.Record)
		r.s.records[collection] = col
	}
	if _, exists := col[rec.ID]; exists {
		return persistence.ErrDuplicate
	}
	col[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *RecordRepo) GetByID(ctx context.Context, collection, id string) (records.Record, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.records[collection][id]
	if !ok {
		return records.Record{}, persistence.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *RecordRepo) ListByPet(ctx context.Context, collection, petID string, skip, limit int64) ([]records.Record, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]records.Record, 0)
	for _, rec := range r.s.records[collection] {
		if rec.PetID == petID {
			out = append(out, cloneRecord(rec))
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

func (r *RecordRepo) Update(ctx context.Context, collection string, rec records.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.records[collection][rec.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.s.records[collection][rec.ID] = cloneRecord(rec)
	return nil
}

func (r *RecordRepo) Delete(ctx context.Context, collection, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.records[collection][id]; !ok {
		return false, nil
	}
	delete(r.s.records[collection], id)
	return true, nil
}

// window aplica skip/limit como lo haría el driver. limit <= 0 => todo.
func window[T any](items []T, skip, limit int64) []T {
	if limit <= 0 {
		return items
	}
	return paging.Apply(items, paging.Params{Page: int(skip/limit) + 1, PageSize: int(limit)})
}
