package users

import (
	"context"
	"sort"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/ports/persistence"
)

type testRepo struct {
	byName map[string]User
}

func newTestRepo() *testRepo { return &testRepo{byName: map[string]User{}} }

func (r *testRepo) Create(ctx context.Context, u User) error {
	if _, ok := r.byName[u.Username]; ok {
		return persistence.ErrDuplicate
	}
	r.byName[u.Username] = u
	return nil
}

func (r *testRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	u, ok := r.byName[username]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return u, nil
}

func (r *testRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byName))
	for _, u := range r.byName {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byName[u.Username]; !ok {
		return persistence.ErrNotFound
	}
	r.byName[u.Username] = u
	return nil
}

func (r *testRepo) Delete(ctx context.Context, username string) (bool, error) {
	if _, ok := r.byName[username]; !ok {
		return false, nil
	}
	delete(r.byName, username)
	return true, nil
}

func (r *testRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.byName)), nil
}

type revokeRecorder struct{ calls []string }

func (r *revokeRecorder) RevokeAll(ctx context.Context, username string) error {
	r.calls = append(r.calls, username)
	return nil
}

func newTestService() (*Service, *testRepo, *revokeRecorder) {
	repo := newTestRepo()
	rev := &revokeRecorder{}
	svc := NewService(repo).WithSessions(rev).WithBcryptCost(bcrypt.MinCost)
	return svc, repo, rev
}

func TestCreateAndAuthenticate(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Create(ctx, "admin", CreateInput{Username: " alice ", Password: "secret1", Email: "a@b.io"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Username != "alice" || !u.IsActive || u.CreatedBy != "admin" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if repo.byName["alice"].PasswordHash == "secret1" {
		t.Fatalf("password stored in clear")
	}

	if _, err := svc.Authenticate(ctx, "alice", "secret1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	cases := []struct{ user, pass string }{
		{"alice", "wrong"},
		{"nobody", "secret1"},
	}
	for _, c := range cases {
		_, err := svc.Authenticate(ctx, c.user, c.pass)
		if !apperr.HasKey(err, apperr.InvalidCredentials) {
			t.Fatalf("%s/%s: expected InvalidCredentials, got %v", c.user, c.pass, err)
		}
	}
}

func TestAuthenticate_InactiveUser(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	inactive := false
	if _, err := svc.Create(ctx, "admin", CreateInput{Username: "bob", Password: "secret1", IsActive: &inactive}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bob", "secret1"); !apperr.HasKey(err, apperr.InvalidCredentials) {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}
}

func TestCreate_DuplicateAndValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "admin", CreateInput{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "admin", CreateInput{Username: "alice", Password: "secret2"}); !apperr.HasKey(err, apperr.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, "admin", CreateInput{Username: "al", Password: "x"}); !apperr.HasKey(err, apperr.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdate_SelfDemoteRejected(t *testing.T) {
	svc, _, rev := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "system", CreateInput{Username: "root", Password: "secret1", IsAdmin: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	no := false
	if _, err := svc.Update(ctx, "root", "root", UpdateInput{IsAdmin: &no}); !apperr.HasKey(err, apperr.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	name := "Root User"
	u, err := svc.Update(ctx, "root", "root", UpdateInput{FullName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.FullName != name {
		t.Fatalf("expected full name updated, got %q", u.FullName)
	}
	if len(rev.calls) != 0 {
		t.Fatalf("name change must not revoke sessions")
	}
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	svc, _, rev := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "admin", CreateInput{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	err := svc.ChangePassword(ctx, "alice", ChangePasswordInput{CurrentPassword: "bad", NewPassword: "secret2"})
	if !apperr.HasKey(err, apperr.InvalidCredentials) {
		t.Fatalf("expected InvalidCredentials, got %v", err)
	}

	if err := svc.ChangePassword(ctx, "alice", ChangePasswordInput{CurrentPassword: "secret1", NewPassword: "secret2"}); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "secret2"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if len(rev.calls) != 1 || rev.calls[0] != "alice" {
		t.Fatalf("expected sessions revoked for alice, got %v", rev.calls)
	}
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "root", CreateInput{Username: "alice", Password: "secret1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, "root", "root"); !apperr.HasKey(err, apperr.ValidationError) {
		t.Fatalf("expected ValidationError on self delete, got %v", err)
	}
	if err := svc.Delete(ctx, "root", "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "root", "alice"); !apperr.HasKey(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	ok, err := svc.Exists(ctx, "alice")
	if err != nil || ok {
		t.Fatalf("expected alice gone, got %v %v", ok, err)
	}
}

func TestEnsureAdmin_OnlyWhenEmpty(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "changeme")
	if err != nil || !created {
		t.Fatalf("expected bootstrap admin, got %v %v", created, err)
	}
	if !repo.byName["admin"].IsAdmin {
		t.Fatalf("bootstrap user must be admin")
	}

	created, err = svc.EnsureAdmin(ctx, "other", "changeme")
	if err != nil || created {
		t.Fatalf("second bootstrap must be a no-op, got %v %v", created, err)
	}
}
