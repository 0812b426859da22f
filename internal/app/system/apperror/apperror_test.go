package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"unauthenticated", Unauthenticated(), ErrUnauthenticated},
		{"permission denied", PermissionDenied("owners only"), ErrPermissionDenied},
		{"not found", NotFound("topic", "t1"), ErrNotFound},
		{"invalid argument", InvalidArgument("email", "email is required"), ErrInvalidArgument},
		{"version conflict", VersionConflict("topic", "t1"), ErrVersionConflict},
		{"already in role", AlreadyInRole("editor"), ErrAlreadyInRole},
		{"transport", Transport(errors.New("connection reset")), ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.kind)
			}
		})
	}
}

func TestErrorSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("updating topic: %w", VersionConflict("topic", "t1"))
	if !errors.Is(err, ErrVersionConflict) {
		t.Error("expected wrapped error to match ErrVersionConflict")
	}

	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatal("expected errors.As to find *Error")
	}
	if ae.Kind != ErrVersionConflict {
		t.Errorf("Kind = %v, want ErrVersionConflict", ae.Kind)
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Unauthenticated(), "unauthenticated"},
		{PermissionDenied("no"), "permission_denied"},
		{NotFound("topic", "x"), "not_found"},
		{InvalidArgument("name", "name is required"), "invalid_argument"},
		{VersionConflict("topic", "x"), "version_conflict"},
		{AlreadyInRole("reader"), "already_in_role"},
		{Transport(errors.New("boom")), "transport"},
		{errors.New("something else"), "internal"},
		{fmt.Errorf("outer: %w", NotFound("post", "p1")), "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
