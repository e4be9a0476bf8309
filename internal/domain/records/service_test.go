package records

import (
	"context"
	"sort"
	"testing"
	"time"

	"pet-health-tracker/internal/domain/access"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/paging"
	"pet-health-tracker/internal/ports/persistence"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byColl map[string]map[string]Record
}

func newTestRepo() *testRepo {
	return &testRepo{byColl: map[string]map[string]Record{}}
}

func (r *testRepo) Create(ctx context.Context, collection string, rec Record) error {
	if r.byColl[collection] == nil {
		r.byColl[collection] = map[string]Record{}
	}
	r.byColl[collection][rec.ID] = rec
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, collection, id string) (Record, error) {
	rec, ok := r.byColl[collection][id]
	if !ok {
		return Record{}, persistence.ErrNotFound
	}
	return rec, nil
}

func (r *testRepo) ListByPet(ctx context.Context, collection, petID string, skip, limit int64) ([]Record, int64, error) {
	out := make([]Record, 0)
	for _, rec := range r.byColl[collection] {
		if rec.PetID == petID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	total := int64(len(out))
	if limit <= 0 {
		return out, total, nil
	}
	return paging.Apply(out, paging.Params{Page: int(skip/limit) + 1, PageSize: int(limit)}), total, nil
}

func (r *testRepo) Update(ctx context.Context, collection string, rec Record) error {
	if _, ok := r.byColl[collection][rec.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.byColl[collection][rec.ID] = rec
	return nil
}

func (r *testRepo) Delete(ctx context.Context, collection, id string) (bool, error) {
	if _, ok := r.byColl[collection][id]; !ok {
		return false, nil
	}
	delete(r.byColl[collection], id)
	return true, nil
}

type testPets map[string]access.PetACL

func (p testPets) LookupPet(ctx context.Context, petID string) (access.PetACL, error) {
	acl, ok := p[petID]
	if !ok {
		return access.PetACL{}, persistence.ErrNotFound
	}
	return acl, nil
}

const (
	petID   = "65a1b2c3d4e5f6a7b8c9d0e1"
	otherID = "65a1b2c3d4e5f6a7b8c9d0e2"
)

var fixedNow = time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	v := access.NewValidator(testPets{
		petID:   {ID: petID, Owner: "alice", SharedWith: []string{"bob"}},
		otherID: {ID: otherID, Owner: "carol"},
	})
	svc := NewService(repo, v).WithDates(dates.NewParserWithClock(func() time.Time { return fixedNow }))
	return svc, repo
}

func TestCreate_AsthmaWithExplicitDate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, Asthma, "alice", []byte(`{
		"pet_id": "`+petID+`",
		"date": "2024-01-15",
		"time": "14:30",
		"duration": "5 min",
		"reason": "dust",
		"inhalation": true,
		"comment": " short "
	}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out := ToResponse(rec)
	if out["date_time"] != "2024-01-15 14:30" {
		t.Fatalf("unexpected date_time %v", out["date_time"])
	}
	if out["duration"] != "5 min" || out["inhalation"] != true || out["comment"] != "short" {
		t.Fatalf("unexpected fields %v", out)
	}
	if out["username"] != "alice" || out["pet_id"] != petID {
		t.Fatalf("unexpected owner fields %v", out)
	}
}

func TestCreate_DefaultsToNowWithoutTime(t *testing.T) {
	svc, _ := newTestService()
	rec, err := svc.Create(context.Background(), Litter, "bob", []byte(`{"pet_id":"`+petID+`","date":"2024-01-10"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !rec.DateTime.Equal(fixedNow) {
		t.Fatalf("expected now, got %v", rec.DateTime)
	}

	// Un time suelto (aunque esté mal) se ignora sin date.
	rec, err = svc.Create(context.Background(), Litter, "bob", []byte(`{"pet_id":"`+petID+`","time":"25:99"}`))
	if err != nil {
		t.Fatalf("create with stray time: %v", err)
	}
	if !rec.DateTime.Equal(fixedNow) {
		t.Fatalf("expected now with stray time, got %v", rec.DateTime)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		kind Kind
		user string
		body string
		want apperr.Key
	}{
		{"missing duration", Asthma, "alice", `{"pet_id":"` + petID + `"}`, apperr.ValidationError},
		{"weight zero", Weight, "alice", `{"pet_id":"` + petID + `","weight":0}`, apperr.ValidationError},
		{"weight negative", Weight, "alice", `{"pet_id":"` + petID + `","weight":-2}`, apperr.ValidationError},
		{"weight wrong type", Weight, "alice", `{"pet_id":"` + petID + `","weight":"heavy"}`, apperr.ValidationError},
		{"date too far", Feeding, "alice", `{"pet_id":"` + petID + `","date":"2024-01-20","time":"10:00","food_weight":20}`, apperr.ValidationError},
		{"malformed time with date", Feeding, "alice", `{"pet_id":"` + petID + `","date":"2024-01-15","time":"25:99","food_weight":20}`, apperr.ValidationError},
		{"malformed date", Feeding, "alice", `{"pet_id":"` + petID + `","date":"15/01/2024","time":"10:00","food_weight":20}`, apperr.ValidationError},
		{"missing pet", EyeDrops, "alice", `{"drops_type":"saline"}`, apperr.MissingParameter},
		{"bad pet id", EyeDrops, "alice", `{"pet_id":"123","drops_type":"saline"}`, apperr.MalformedIdentifier},
		{"not shared", EyeDrops, "alice", `{"pet_id":"` + otherID + `","drops_type":"saline"}`, apperr.Forbidden},
		{"broken json", EyeDrops, "alice", `[1,2]`, apperr.BadRequest},
	}

	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.kind, tc.user, []byte(tc.body))
		if !apperr.HasKey(err, tc.want) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.want, err)
		}
	}
}

func TestList_SortedAndPaged(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, d := range []string{"2024-01-10", "2024-01-12", "2024-01-11"} {
		_, err := svc.Create(ctx, Weight, "alice", []byte(`{"pet_id":"`+petID+`","date":"`+d+`","time":"08:00","weight":4.2}`))
		if err != nil {
			t.Fatalf("create %s: %v", d, err)
		}
	}

	items, total, err := svc.List(ctx, Weight, petID, "bob", paging.Params{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(items), total)
	}
	if dates.Format(items[0].DateTime) != "2024-01-12 08:00" || dates.Format(items[1].DateTime) != "2024-01-11 08:00" {
		t.Fatalf("not sorted desc: %v %v", items[0].DateTime, items[1].DateTime)
	}

	items, _, _ = svc.List(ctx, Weight, petID, "bob", paging.Params{Page: 5, PageSize: 2})
	if len(items) != 0 {
		t.Fatalf("expected empty page, got %d", len(items))
	}

	if _, _, err := svc.List(ctx, Weight, petID, "mallory", paging.Default()); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestUpdate_KeepsDateUnlessBothGiven(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, Defecation, "alice", []byte(`{"pet_id":"`+petID+`","date":"2024-01-15","time":"07:00","stool_type":"normal","color":"brown"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Solo date: la fecha no cambia. color se conserva.
	up, err := svc.Update(ctx, Defecation, rec.ID, "bob", []byte(`{"date":"2024-01-14","stool_type":"soft"}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dates.Format(up.DateTime) != "2024-01-15 07:00" {
		t.Fatalf("date_time changed: %v", up.DateTime)
	}
	if up.Fields["stool_type"] != "soft" || up.Fields["color"] != "brown" {
		t.Fatalf("unexpected fields %v", up.Fields)
	}

	up, err = svc.Update(ctx, Defecation, rec.ID, "bob", []byte(`{"date":"2024-01-14","time":"21:15"}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dates.Format(up.DateTime) != "2024-01-14 21:15" {
		t.Fatalf("date_time not updated: %v", up.DateTime)
	}

	if _, err := svc.Update(ctx, Defecation, rec.ID, "bob", []byte(`{"stool_type":""}`)); !apperr.HasKey(err, apperr.ValidationError) {
		t.Fatalf("expected ValidationError clearing required field, got %v", err)
	}
	if _, err := svc.Update(ctx, Defecation, rec.ID, "mallory", []byte(`{}`)); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	rec, err := svc.Create(ctx, EarCleaning, "alice", []byte(`{"pet_id":"`+petID+`","cleaning_type":"wipe"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, EarCleaning, rec.ID, "mallory"); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, EarCleaning, rec.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.byColl[EarCleaning.Collection][rec.ID]; ok {
		t.Fatalf("record still present")
	}
	if err := svc.Delete(ctx, EarCleaning, rec.ID, "alice"); !apperr.HasKey(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	// Registro sin pet_id => InvalidRecord (500)
	bad := Record{ID: "75a1b2c3d4e5f6a7b8c9d0e9"}
	_ = repo.Create(ctx, EarCleaning.Collection, bad)
	if err := svc.Delete(ctx, EarCleaning, bad.ID, "alice"); !apperr.HasKey(err, apperr.InvalidRecord) {
		t.Fatalf("expected InvalidRecord, got %v", err)
	}
}

func TestKinds(t *testing.T) {
	if len(All()) != 8 || len(Collections()) != 8 {
		t.Fatalf("expected 8 kinds")
	}
	k, ok := ByName("tooth_brushing")
	if !ok || k.Collection != "tooth_brushing" {
		t.Fatalf("unexpected %+v", k)
	}
	if _, ok := ByName("grooming"); ok {
		t.Fatalf("unknown kind resolved")
	}
}
