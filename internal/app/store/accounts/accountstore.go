package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	"github.com/linlinlin97264/topic-manage/internal/app/system/authutil"
	"github.com/linlinlin97264/topic-manage/internal/app/system/normalize"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

var (
	// ErrDuplicateEmail is returned when an account with this email already exists.
	ErrDuplicateEmail = errors.New("an account with this email already exists")
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrBadCredentials is returned when the password does not match.
	// Callers must not distinguish it from a missing account in responses.
	ErrBadCredentials = errors.New("invalid email or password")
)

// Store holds sign-in accounts under "accounts/{uid}". Accounts carry
// credentials only; profile data lives in the user directory.
type Store struct {
	ds docstore.Store
}

func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

// Create registers a password account. The email is normalized and must
// not already be registered. Returns the new account with its assigned UID.
func (s *Store) Create(ctx context.Context, email, password string) (models.Account, error) {
	email = normalize.Email(email)

	if _, err := s.GetByEmail(ctx, email); err == nil {
		return models.Account{}, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return models.Account{}, err
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return models.Account{}, err
	}

	now := time.Now().UTC()
	a := models.Account{
		UID:          s.ds.NewID(),
		Email:        email,
		PasswordHash: hash,
		AuthMethod:   "password",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	fields, err := docstore.FieldsOf(a)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.ds.Put(ctx, docstore.DocPath("accounts", a.UID), fields); err != nil {
		return models.Account{}, err
	}
	return a, nil
}

// CreateExternal registers an account for an external identity provider.
// No password is stored; the provider vouches for the email. Idempotent:
// an existing account for the email is returned as-is.
func (s *Store) CreateExternal(ctx context.Context, email, method string) (models.Account, error) {
	email = normalize.Email(email)

	existing, err := s.GetByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Account{}, err
	}

	now := time.Now().UTC()
	a := models.Account{
		UID:        s.ds.NewID(),
		Email:      email,
		AuthMethod: normalize.AuthMethod(method),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	fields, err := docstore.FieldsOf(a)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.ds.Put(ctx, docstore.DocPath("accounts", a.UID), fields); err != nil {
		return models.Account{}, err
	}
	return a, nil
}

// GetByEmail looks up an account by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Account, error) {
	email = normalize.Email(email)
	if email == "" {
		return models.Account{}, ErrNotFound
	}
	docs, err := s.ds.Query(ctx, "accounts", docstore.Fields{"email": email})
	if err != nil {
		return models.Account{}, err
	}
	if len(docs) == 0 {
		return models.Account{}, ErrNotFound
	}
	var a models.Account
	if err := docs[0].Decode(&a); err != nil {
		return models.Account{}, err
	}
	a.UID = docs[0].ID
	return a, nil
}

// GetByID loads an account by UID.
func (s *Store) GetByID(ctx context.Context, uid string) (models.Account, error) {
	doc, err := s.ds.Get(ctx, docstore.DocPath("accounts", uid))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, err
	}
	var a models.Account
	if err := doc.Decode(&a); err != nil {
		return models.Account{}, err
	}
	a.UID = doc.ID
	return a, nil
}

// Authenticate verifies a password sign-in. Missing accounts and wrong
// passwords both return ErrBadCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.Account, error) {
	a, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Account{}, ErrBadCredentials
		}
		return models.Account{}, err
	}
	// An empty hash means an external-provider account; password
	// sign-in is not available for it.
	if !authutil.CheckPassword(password, a.PasswordHash) {
		return models.Account{}, ErrBadCredentials
	}
	return a, nil
}

// SetPassword replaces the stored hash for uid.
func (s *Store) SetPassword(ctx context.Context, uid, password string) error {
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	err = s.ds.Update(ctx, docstore.DocPath("accounts", uid), docstore.Fields{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	})
	if errors.Is(err, docstore.ErrNoDocument) {
		return ErrNotFound
	}
	return err
}
