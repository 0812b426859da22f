package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	"github.com/linlinlin97264/topic-manage/internal/app/system/normalize"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

// ErrNotFound is returned when no profile matches the lookup.
var ErrNotFound = errors.New("user not found")

// Store is the user directory: profile records keyed by UID under
// "users/{uid}". Profiles are created lazily on first authentication
// and never deleted, so references from old topics stay resolvable.
type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

// GetByID loads a profile by UID.
func (s *Store) GetByID(ctx context.Context, uid string) (models.UserProfile, error) {
	doc, err := s.ds.Get(ctx, docstore.DocPath("users", uid))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.UserProfile{}, ErrNotFound
		}
		return models.UserProfile{}, err
	}
	var u models.UserProfile
	if err := doc.Decode(&u); err != nil {
		return models.UserProfile{}, err
	}
	u.UID = doc.ID
	return u, nil
}

// ResolveByEmail finds the profile with the given email via an equality
// query on the normalized form. Emails are unique per profile; if a
// duplicate ever slips in the first match wins.
func (s *Store) ResolveByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.UserProfile{}, ErrNotFound
	}
	docs, err := s.ds.Query(ctx, "users", docstore.Fields{"email": email})
	if err != nil {
		return models.UserProfile{}, err
	}
	if len(docs) == 0 {
		return models.UserProfile{}, ErrNotFound
	}
	var u models.UserProfile
	if err := docs[0].Decode(&u); err != nil {
		return models.UserProfile{}, err
	}
	u.UID = docs[0].ID
	return u, nil
}

// EnsureProfile creates the profile for uid if it does not exist yet.
// It runs on every successful sign-in, so it must be idempotent; an
// existing profile is returned untouched. A blank username defaults to
// the local part of the email.
func (s *Store) EnsureProfile(ctx context.Context, uid, email, username string) (models.UserProfile, error) {
	existing, err := s.GetByID(ctx, uid)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.UserProfile{}, err
	}

	username = normalize.Name(username)
	if username == "" {
		username = normalize.UsernameFromEmail(email)
	}
	u := models.UserProfile{
		UID:       uid,
		Email:     normalize.Email(email),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	fields, err := docstore.FieldsOf(u)
	if err != nil {
		return models.UserProfile{}, err
	}
	if err := s.ds.Put(ctx, docstore.DocPath("users", uid), fields); err != nil {
		return models.UserProfile{}, err
	}
	return u, nil
}

// DisplayName resolves a UID to the best available display name,
// falling back to "Unknown user" for missing profiles so callers can
// render stale references without special cases.
func (s *Store) DisplayName(ctx context.Context, uid string) string {
	u, err := s.GetByID(ctx, uid)
	if err != nil {
		return "Unknown user"
	}
	return u.DisplayName()
}
