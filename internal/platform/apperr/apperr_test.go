package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestTable_StatusCodes(t *testing.T) {
	cases := map[Key]int{
		MissingParameter:    http.StatusUnprocessableEntity,
		MalformedIdentifier: http.StatusUnprocessableEntity,
		OutOfRange:          http.StatusUnprocessableEntity,
		BadRequest:          http.StatusBadRequest,
		Unauthorized:        http.StatusUnauthorized,
		Forbidden:           http.StatusForbidden,
		NotFound:            http.StatusNotFound,
		MethodNotAllowed:    http.StatusMethodNotAllowed,
		RateLimited:         http.StatusTooManyRequests,
		Internal:            http.StatusInternalServerError,
	}
	for key, want := range cases {
		if got := New(key).Status(); got != want {
			t.Errorf("%s: expected %d got %d", key, want, got)
		}
	}
}

func TestNormalize_UnknownIsInternal(t *testing.T) {
	e := Normalize(errors.New("mongo: connection reset"))
	if e.Key != Internal || e.Status() != http.StatusInternalServerError {
		t.Fatalf("expected internal, got %#v", e)
	}
	if e.Public() != "internal server error" {
		t.Fatalf("internal detail must not leak, got %q", e.Public())
	}
}

func TestIs_MatchesByKeyThroughWrapping(t *testing.T) {
	err := fmt.Errorf("records: %w", New(Forbidden, "no access to pet"))
	if !errors.Is(err, New(Forbidden)) {
		t.Fatalf("expected errors.Is to match Forbidden")
	}
	if errors.Is(err, New(NotFound)) {
		t.Fatalf("should not match NotFound")
	}
	if !HasKey(err, Forbidden) {
		t.Fatalf("HasKey should see wrapped error")
	}
}
