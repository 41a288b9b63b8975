package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", Conflict("already validated"), KindConflict},
		{"wrapped", fmt.Errorf("submit: %w", NotFound("no goal")), KindNotFound},
		{"double wrapped", fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", Forbidden("not owner"))), KindForbidden},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil cause", BadInput("missing title"), KindBadInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row locked")
	err := Wrap(KindInternal, "insert failed", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Conflict("duplicate notification")
	want := "conflict: duplicate notification"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
