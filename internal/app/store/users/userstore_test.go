package userstore

import (
	"context"
	"errors"
	"testing"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
)

func TestEnsureProfileCreatesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New(docstore.NewMemory())

	u, err := s.EnsureProfile(ctx, "u1", "Alice@Example.COM", "")
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized", u.Email)
	}
	if u.Username != "alice" {
		t.Errorf("username = %q, want local part fallback", u.Username)
	}

	// Second call with different inputs must not overwrite.
	again, err := s.EnsureProfile(ctx, "u1", "other@example.com", "Other")
	if err != nil {
		t.Fatalf("EnsureProfile again: %v", err)
	}
	if again.Email != "alice@example.com" || again.Username != "alice" {
		t.Errorf("existing profile mutated: %+v", again)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s := New(docstore.NewMemory())
	if _, err := s.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveByEmail(t *testing.T) {
	ctx := context.Background()
	s := New(docstore.NewMemory())

	if _, err := s.EnsureProfile(ctx, "u1", "bob@example.com", "Bob"); err != nil {
		t.Fatal(err)
	}

	u, err := s.ResolveByEmail(ctx, "  BOB@example.com ")
	if err != nil {
		t.Fatalf("ResolveByEmail: %v", err)
	}
	if u.UID != "u1" {
		t.Errorf("uid = %q, want u1", u.UID)
	}

	if _, err := s.ResolveByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing email: err = %v, want ErrNotFound", err)
	}
	if _, err := s.ResolveByEmail(ctx, "   "); !errors.Is(err, ErrNotFound) {
		t.Errorf("blank email: err = %v, want ErrNotFound", err)
	}
}

func TestDisplayNameFallback(t *testing.T) {
	ctx := context.Background()
	s := New(docstore.NewMemory())

	if _, err := s.EnsureProfile(ctx, "u1", "carol@example.com", "Carol"); err != nil {
		t.Fatal(err)
	}
	if got := s.DisplayName(ctx, "u1"); got != "Carol" {
		t.Errorf("DisplayName = %q, want Carol", got)
	}
	if got := s.DisplayName(ctx, "gone"); got != "Unknown user" {
		t.Errorf("DisplayName for missing uid = %q, want Unknown user", got)
	}
}
