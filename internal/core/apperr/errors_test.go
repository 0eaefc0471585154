package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{MissingCredential("Access token required"), http.StatusUnauthorized},
		{InvalidCredential("Invalid or expired token"), http.StatusForbidden},
		{Unauthenticated("Invalid credentials"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{BadRequest("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusConflict},
		{NotFound("gone"), http.StatusNotFound},
		{Unavailable("busy", nil), http.StatusServiceUnavailable},
		{errors.New("driver exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestStorageHidesCause(t *testing.T) {
	cause := errors.New("pq: relation \"contacts\" does not exist")
	err := Storage(cause)
	if err.Error() != "Internal server error" {
		t.Fatalf("storage message leaked cause: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not wrapped")
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("Lead not found"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to match kind")
	}
	if errors.Is(err, ErrConflict) {
		t.Fatalf("unexpected kind match")
	}
	if KindOf(err) != KindNotFound {
		t.Fatalf("KindOf = %s", KindOf(err))
	}
	if KindOf(errors.New("x")) != KindStorage {
		t.Fatalf("unknown errors should be storage")
	}
}
