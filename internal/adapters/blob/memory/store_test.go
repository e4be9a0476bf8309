package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"pet-health-tracker/internal/ports/blob"
)

func TestStore_PutGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	info, err := s.Put(ctx, "pets/1/a.png", strings.NewReader("img"), "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 3 || info.ContentType != "image/png" {
		t.Fatalf("unexpected info %+v", info)
	}

	_, rc, err := s.Get(ctx, "pets/1/a.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "img" {
		t.Fatalf("unexpected body %q", b)
	}

	if ok, _ := s.Delete(ctx, "pets/1/a.png"); !ok {
		t.Fatalf("expected delete to report existing key")
	}
	if ok, _ := s.Delete(ctx, "pets/1/a.png"); ok {
		t.Fatalf("second delete should report missing key")
	}
	if _, _, err := s.Get(ctx, "pets/1/a.png"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
