package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("ticker is required"), http.StatusBadRequest},
		{NotFound("AAPL"), http.StatusNotFound},
		{Conflict("AAPL is already tracked"), http.StatusConflict},
		{Unauthorized("bad code"), http.StatusUnauthorized},
		{Upstream("quote", errors.New("timeout")), http.StatusBadRequest},
		{Persistence("write", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("TSLA")), http.StatusNotFound},
	}
	for _, c := range cases {
		if got := Status(c.err); got != c.want {
			t.Errorf("Status(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := Persistence("write stocks file", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through errors.Is")
	}
	if !errors.Is(err, ErrPersistence) {
		t.Error("expected kind to match")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("unexpected kind match")
	}
	if got := Message(err); got != "write stocks file: permission denied" {
		t.Errorf("Message = %q", got)
	}
}
