package pets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/ports/blob"
	"pet-health-tracker/internal/ports/notify"
	"pet-health-tracker/internal/ports/persistence"
)

// -------------------------
// Fakes
// -------------------------

type testRepo struct {
	byID map[string]Pet
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Pet{}} }

func (r *testRepo) Create(ctx context.Context, p Pet) error {
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Pet, error) {
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, persistence.ErrNotFound
	}
	p.SharedWith = slices.Clone(p.SharedWith)
	return p, nil
}

func (r *testRepo) ListAccessible(ctx context.Context, username string) ([]Pet, error) {
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.Owner == username || p.IsSharedWith(username) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Pet) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, p Pet) error {
	if _, ok := r.byID[p.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) AddSharedUser(ctx context.Context, petID, username string) error {
	p := r.byID[petID]
	if !p.IsSharedWith(username) {
		p.SharedWith = append(p.SharedWith, username)
	}
	r.byID[petID] = p
	return nil
}

func (r *testRepo) RemoveSharedUser(ctx context.Context, petID, username string) (bool, error) {
	p := r.byID[petID]
	idx := slices.Index(p.SharedWith, username)
	if idx < 0 {
		return false, nil
	}
	p.SharedWith = slices.Delete(p.SharedWith, idx, idx+1)
	r.byID[petID] = p
	return true, nil
}

func (r *testRepo) SetPhoto(ctx context.Context, petID, ref string) error {
	p := r.byID[petID]
	p.PhotoRef = ref
	r.byID[petID] = p
	return nil
}

// testCascade borra sobre testRepo y cuenta dependientes ficticios.
type testCascade struct {
	repo       *testRepo
	noTx       bool
	deps       map[string]int64
	failOn     string
	atomicHits int
}

func (c *testCascade) DependentCollections() []string {
	return []string{"asthma_attacks", "weights", "medications"}
}

func (c *testCascade) DeletePetCascadeAtomic(ctx context.Context, petID string) ([]CollectionOutcome, error) {
	c.atomicHits++
	if c.noTx {
		return nil, persistence.ErrTransactionsUnsupported
	}
	if _, ok := c.repo.byID[petID]; !ok {
		return nil, persistence.ErrNotFound
	}
	out := make([]CollectionOutcome, 0)
	for _, col := range c.DependentCollections() {
		out = append(out, CollectionOutcome{Collection: col, Deleted: c.deps[col]})
	}
	delete(c.repo.byID, petID)
	return out, nil
}

func (c *testCascade) DeletePet(ctx context.Context, petID string) (bool, error) {
	if _, ok := c.repo.byID[petID]; !ok {
		return false, nil
	}
	delete(c.repo.byID, petID)
	return true, nil
}

func (c *testCascade) DeleteByPet(ctx context.Context, collection, petID string) (int64, error) {
	if collection == c.failOn {
		return 0, errors.New("connection reset")
	}
	return c.deps[collection], nil
}

type testBlobs struct {
	items      map[string][]byte
	failDelete bool
}

func (b *testBlobs) Put(ctx context.Context, key string, r io.Reader, ct string) (blob.Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return blob.Info{}, err
	}
	b.items[key] = data
	return blob.Info{Key: key, Size: int64(len(data)), ContentType: ct}, nil
}

func (b *testBlobs) Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	data, ok := b.items[key]
	if !ok {
		return blob.Info{}, nil, blob.ErrNotFound
	}
	return blob.Info{Key: key, Size: int64(len(data))}, io.NopCloser(bytes.NewReader(data)), nil
}

func (b *testBlobs) Delete(ctx context.Context, key string) (bool, error) {
	if b.failDelete {
		return false, errors.New("s3 unavailable")
	}
	_, ok := b.items[key]
	delete(b.items, key)
	return ok, nil
}

type recordingNotifier struct{ events []notify.Event }

func (n *recordingNotifier) Notify(ctx context.Context, ev notify.Event) error {
	n.events = append(n.events, ev)
	return nil
}

type testUsers map[string]bool

func (u testUsers) Exists(ctx context.Context, username string) (bool, error) {
	return u[username], nil
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

type fixture struct {
	svc      *Service
	repo     *testRepo
	cascade  *testCascade
	blobs    *testBlobs
	notifier *recordingNotifier
}

func newFixture() fixture {
	repo := newTestRepo()
	cascade := &testCascade{repo: repo, deps: map[string]int64{"asthma_attacks": 3, "weights": 1}}
	blobs := &testBlobs{items: map[string][]byte{}}
	n := &recordingNotifier{}
	svc := NewService(repo, cascade).
		WithPhotos(blobs).
		WithNotifier(n).
		WithUsers(testUsers{"alice": true, "bob": true, "carol": true})
	return fixture{svc: svc, repo: repo, cascade: cascade, blobs: blobs, notifier: n}
}

func mustCreate(t *testing.T, f fixture, owner, name string) Pet {
	t.Helper()
	p, err := f.svc.Create(context.Background(), owner, CreateInput{Name: name, Species: "cat"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

// -------------------------
// Tests
// -------------------------

func TestCreate_ValidatesAndDefaults(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.svc.Create(ctx, "alice", CreateInput{Name: "  Luna ", BirthDate: "2020-02-29", Gender: "female"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Name != "Luna" || p.Owner != "alice" || p.BirthDate == nil || len(p.ID) != 24 {
		t.Fatalf("unexpected pet %+v", p)
	}

	if _, err := f.svc.Create(ctx, "alice", CreateInput{Name: ""}); !apperr.HasKey(err, apperr.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := f.svc.Create(ctx, "alice", CreateInput{Name: "x", Gender: "robot"}); !apperr.HasKey(err, apperr.ValidationError) {
		t.Fatalf("expected ValidationError for gender, got %v", err)
	}
	future := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	if _, err := f.svc.Create(ctx, "alice", CreateInput{Name: "x", BirthDate: future}); err == nil {
		t.Fatalf("expected future birth date to fail")
	}
}

func TestShare_ListAndAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := mustCreate(t, f, "alice", "Luna")

	if _, err := f.svc.Get(ctx, p.ID, "bob"); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden before share, got %v", err)
	}

	if _, err := f.svc.Share(ctx, p.ID, "bob", "carol"); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("non owner share: expected Forbidden, got %v", err)
	}
	if _, err := f.svc.Share(ctx, p.ID, "alice", "alice"); !apperr.HasKey(err, apperr.ValidationError) {
		t.Fatalf("self share: expected ValidationError, got %v", err)
	}
	if _, err := f.svc.Share(ctx, p.ID, "alice", "ghost"); !apperr.HasKey(err, apperr.NotFound) {
		t.Fatalf("unknown user: expected NotFound, got %v", err)
	}

	shared, err := f.svc.Share(ctx, p.ID, "alice", "bob")
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	if !shared.IsSharedWith("bob") {
		t.Fatalf("expected bob in shared_with, got %v", shared.SharedWith)
	}

	list, err := f.svc.List(ctx, "bob")
	if err != nil || len(list) != 1 {
		t.Fatalf("expected shared pet listed for bob, got %v %v", list, err)
	}

	name := "Luna II"
	if _, err := f.svc.Update(ctx, p.ID, "bob", UpdateInput{Name: &name}); err != nil {
		t.Fatalf("shared user update: %v", err)
	}
	if _, err := f.svc.Delete(ctx, p.ID, "bob"); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("shared user delete: expected Forbidden, got %v", err)
	}

	if _, err := f.svc.Unshare(ctx, p.ID, "alice", "bob"); err != nil {
		t.Fatalf("unshare: %v", err)
	}
	if _, err := f.svc.Unshare(ctx, p.ID, "alice", "bob"); !apperr.HasKey(err, apperr.NotFound) {
		t.Fatalf("second unshare: expected NotFound, got %v", err)
	}
	if _, err := f.svc.Get(ctx, p.ID, "bob"); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden after unshare, got %v", err)
	}
}

func TestUpdate_ClearsBirthDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p, err := f.svc.Create(ctx, "alice", CreateInput{Name: "Luna", BirthDate: "2019-05-01"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	empty := ""
	up, err := f.svc.Update(ctx, p.ID, "alice", UpdateInput{BirthDate: &empty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.BirthDate != nil {
		t.Fatalf("expected birth date cleared, got %v", up.BirthDate)
	}
}

func TestDelete_AtomicPath(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := mustCreate(t, f, "alice", "Luna")

	rep, err := f.svc.Delete(ctx, p.ID, "alice")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rep.Path != PathAtomic || len(rep.Collections) != 3 || rep.Collections[0].Deleted != 3 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if _, ok := f.repo.byID[p.ID]; ok {
		t.Fatalf("pet still present")
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].Subject != notify.SubjectPetDeleted {
		t.Fatalf("expected pet deleted event, got %+v", f.notifier.events)
	}

	if _, err := f.svc.Get(ctx, p.ID, "alice"); !apperr.HasKey(err, apperr.NotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestDelete_SequentialFallbackReportsFailures(t *testing.T) {
	f := newFixture()
	f.cascade.noTx = true
	f.cascade.failOn = "weights"
	ctx := context.Background()
	p := mustCreate(t, f, "alice", "Luna")

	rep, err := f.svc.Delete(ctx, p.ID, "alice")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rep.Path != PathSequential {
		t.Fatalf("expected sequential path, got %s", rep.Path)
	}
	if failed := rep.Failed(); len(failed) != 1 || failed[0] != "weights" {
		t.Fatalf("expected weights reported as failed, got %v", failed)
	}
	if _, ok := f.repo.byID[p.ID]; ok {
		t.Fatalf("pet must be gone even when cleanup fails")
	}
}

func TestDelete_PhotoFailureDoesNotAbort(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := mustCreate(t, f, "alice", "Luna")

	if _, err := f.svc.UploadPhoto(ctx, p.ID, "alice", bytes.NewReader(pngBytes)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	f.blobs.failDelete = true

	rep, err := f.svc.Delete(ctx, p.ID, "alice")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rep.Photo != PhotoFailed {
		t.Fatalf("expected photo failure reported, got %s", rep.Photo)
	}
}

func TestUploadPhoto_SniffsAndReplaces(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := mustCreate(t, f, "alice", "Luna")

	if _, err := f.svc.UploadPhoto(ctx, p.ID, "alice", strings.NewReader("not an image at all")); !apperr.HasKey(err, apperr.ValidationError) {
		t.Fatalf("expected ValidationError for text, got %v", err)
	}

	first, err := f.svc.UploadPhoto(ctx, p.ID, "alice", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(first.PhotoRef, "pets/"+p.ID+"/") || !strings.HasSuffix(first.PhotoRef, ".png") {
		t.Fatalf("unexpected key %q", first.PhotoRef)
	}

	second, err := f.svc.UploadPhoto(ctx, p.ID, "alice", bytes.NewReader(pngBytes))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if _, ok := f.blobs.items[first.PhotoRef]; ok {
		t.Fatalf("old photo must be removed")
	}

	_, rc, err := f.svc.Photo(ctx, p.ID, "alice")
	if err != nil {
		t.Fatalf("photo: %v", err)
	}
	defer rc.Close()
	if second.PhotoRef != f.repo.byID[p.ID].PhotoRef {
		t.Fatalf("photo ref not persisted")
	}

	if _, _, err := f.svc.Photo(ctx, p.ID, "bob"); !apperr.HasKey(err, apperr.Forbidden) {
		t.Fatalf("expected Forbidden for stranger, got %v", err)
	}
}
