package passwordreset

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
)

const (
	// TokenLength is the length of the reset token in bytes (32 bytes = 64 hex chars).
	TokenLength = 32
	// DefaultExpiry is how long a reset token is valid.
	DefaultExpiry = 30 * time.Minute
	// MaxResends is the maximum number of reset requests within the rate limit window.
	MaxResends = 3
	// ResendWindow is the time window for tracking request rate limiting.
	ResendWindow = 10 * time.Minute
)

var (
	// ErrNotFound is returned when a reset record is not found or expired.
	ErrNotFound = errors.New("reset token not found or expired")
	// ErrTooManyRequests is returned when too many reset requests have been made.
	ErrTooManyRequests = errors.New("too many reset requests")
)

// Reset represents a pending password reset.
type Reset struct {
	ID          string    `bson:"_id,omitempty"`
	UID         string    `bson:"uid"`
	Email       string    `bson:"email"`
	Token       string    `bson:"token"`
	ExpiresAt   time.Time `bson:"expires_at"`
	CreatedAt   time.Time `bson:"created_at"`
	ResendCount int       `bson:"resend_count"`
	WindowStart time.Time `bson:"window_start"`
}

// Store manages password reset records under "password_resets/{id}".
// Expired records are reaped by the store's TTL index on expires_at.
type Store struct {
	ds     docstore.Store
	expiry time.Duration
}

// New creates a Store with the specified expiry duration.
// If expiry is 0 or negative, DefaultExpiry is used.
func New(ds docstore.Store, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{ds: ds, expiry: expiry}
}

// Expiry returns the expiry duration for reset tokens.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Create issues a reset token for uid, replacing any outstanding one.
// Repeat requests within the rate limit window count against MaxResends.
// Returns the plain token to send via email.
func (s *Store) Create(ctx context.Context, uid, email string) (string, error) {
	now := time.Now().UTC()

	existing, err := s.findByUID(ctx, uid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}

	resendCount := 0
	windowStart := now
	if err == nil {
		if now.Before(existing.WindowStart.Add(ResendWindow)) {
			if existing.ResendCount >= MaxResends {
				return "", ErrTooManyRequests
			}
			windowStart = existing.WindowStart
			resendCount = existing.ResendCount + 1
		}
		if err := s.ds.Delete(ctx, docstore.DocPath("password_resets", existing.ID)); err != nil {
			return "", err
		}
	}

	r := Reset{
		ID:          s.ds.NewID(),
		UID:         uid,
		Email:       email,
		Token:       generateToken(),
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		ResendCount: resendCount,
		WindowStart: windowStart,
	}
	fields, err := docstore.FieldsOf(r)
	if err != nil {
		return "", err
	}
	if err := s.ds.Put(ctx, docstore.DocPath("password_resets", r.ID), fields); err != nil {
		return "", fmt.Errorf("insert reset: %w", err)
	}
	return r.Token, nil
}

// Consume verifies a token and deletes its record, returning the reset
// details. Tokens are single use; expired or unknown tokens return
// ErrNotFound.
func (s *Store) Consume(ctx context.Context, token string) (Reset, error) {
	docs, err := s.ds.Query(ctx, "password_resets", docstore.Fields{"token": token})
	if err != nil {
		return Reset{}, err
	}
	if len(docs) == 0 {
		return Reset{}, ErrNotFound
	}
	var r Reset
	if err := docs[0].Decode(&r); err != nil {
		return Reset{}, err
	}
	r.ID = docs[0].ID
	if time.Now().After(r.ExpiresAt) {
		return Reset{}, ErrNotFound
	}
	if err := s.ds.Delete(ctx, docstore.DocPath("password_resets", r.ID)); err != nil {
		return Reset{}, err
	}
	return r, nil
}

// CleanupExpired removes reset records past their expiry. The Mongo
// TTL index reaps these too; this keeps the memory store tidy and
// covers TTL lag.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	docs, err := s.ds.Query(ctx, "password_resets", nil)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	var deleted int64
	for _, d := range docs {
		var r Reset
		if err := d.Decode(&r); err != nil {
			continue
		}
		if now.After(r.ExpiresAt) {
			if err := s.ds.Delete(ctx, docstore.DocPath("password_resets", d.ID)); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) findByUID(ctx context.Context, uid string) (Reset, error) {
	docs, err := s.ds.Query(ctx, "password_resets", docstore.Fields{"uid": uid})
	if err != nil {
		return Reset{}, err
	}
	if len(docs) == 0 {
		return Reset{}, ErrNotFound
	}
	var r Reset
	if err := docs[0].Decode(&r); err != nil {
		return Reset{}, err
	}
	r.ID = docs[0].ID
	return r, nil
}

// generateToken generates a random token for reset links.
// Panics if the system's cryptographic random number generator fails.
func generateToken() string {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
