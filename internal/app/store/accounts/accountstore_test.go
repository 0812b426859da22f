package accountstore

import (
	"context"
	"errors"
	"testing"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
)

func TestCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := New(docstore.NewMemory())

	a, err := s.Create(ctx, " Dave@Example.COM ", "s3cret-pass")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.UID == "" {
		t.Error("expected UID to be assigned")
	}
	if a.Email != "dave@example.com" {
		t.Errorf("email = %q, want normalized", a.Email)
	}
	if a.PasswordHash == "" || a.PasswordHash == "s3cret-pass" {
		t.Error("password must be stored hashed")
	}

	got, err := s.Authenticate(ctx, "dave@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.UID != a.UID {
		t.Errorf("uid = %q, want %q", got.UID, a.UID)
	}

	if _, err := s.Authenticate(ctx, "dave@example.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password: err = %v, want ErrBadCredentials", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("missing account: err = %v, want ErrBadCredentials", err)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := New(docstore.NewMemory())

	if _, err := s.Create(ctx, "eve@example.com", "pass-one"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, "EVE@example.com", "pass-two"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestCreateExternalIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New(docstore.NewMemory())

	a, err := s.CreateExternal(ctx, "frank@example.com", "google")
	if err != nil {
		t.Fatalf("CreateExternal: %v", err)
	}
	if a.AuthMethod != "google" {
		t.Errorf("auth method = %q, want google", a.AuthMethod)
	}
	if a.PasswordHash != "" {
		t.Error("external account must not carry a password hash")
	}

	again, err := s.CreateExternal(ctx, "frank@example.com", "google")
	if err != nil {
		t.Fatalf("CreateExternal again: %v", err)
	}
	if again.UID != a.UID {
		t.Errorf("uid changed on repeat: %q vs %q", again.UID, a.UID)
	}

	// Password sign-in is unavailable for external accounts.
	if _, err := s.Authenticate(ctx, "frank@example.com", ""); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("err = %v, want ErrBadCredentials", err)
	}
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	s := New(docstore.NewMemory())

	a, err := s.Create(ctx, "gina@example.com", "old-pass")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetPassword(ctx, a.UID, "new-pass"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if _, err := s.Authenticate(ctx, "gina@example.com", "old-pass"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}
	if _, err := s.Authenticate(ctx, "gina@example.com", "new-pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if err := s.SetPassword(ctx, "missing", "whatever"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
