// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"time"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
)

// State represents an OAuth2 state token stored for CSRF protection.
type State struct {
	ID        string    `bson:"_id,omitempty"`
	State     string    `bson:"state"`
	ReturnURL string    `bson:"return_url,omitempty"` // Where to redirect after auth
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store manages OAuth2 state tokens under "oauth_states/{id}".
type Store struct {
	ds docstore.Store
}

// New creates a new OAuth state Store.
func New(ds docstore.Store) *Store {
	return &Store{ds: ds}
}

// Save stores a state token with the given expiration time, optionally
// with a return URL to redirect to after auth.
func (s *Store) Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error {
	st := State{
		ID:        s.ds.NewID(),
		State:     state,
		ReturnURL: returnURL,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	fields, err := docstore.FieldsOf(st)
	if err != nil {
		return err
	}
	return s.ds.Put(ctx, docstore.DocPath("oauth_states", st.ID), fields)
}

// Validate checks if a state token exists and is not expired. If valid,
// it deletes the token (one-time use) and returns the associated return
// URL. Returns an empty string and false if the state is invalid or
// expired.
func (s *Store) Validate(ctx context.Context, state string) (returnURL string, valid bool, err error) {
	docs, err := s.ds.Query(ctx, "oauth_states", docstore.Fields{"state": state})
	if err != nil {
		return "", false, err
	}
	if len(docs) == 0 {
		return "", false, nil
	}
	var st State
	if err := docs[0].Decode(&st); err != nil {
		return "", false, err
	}
	if err := s.ds.Delete(ctx, docs[0].Path); err != nil {
		return "", false, err
	}
	if time.Now().UTC().After(st.ExpiresAt) {
		return "", false, nil
	}
	return st.ReturnURL, true, nil
}

// CleanupExpired removes expired state tokens. This is a backup for
// when TTL index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	docs, err := s.ds.Query(ctx, "oauth_states", nil)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	var removed int64
	for _, doc := range docs {
		var st State
		if err := doc.Decode(&st); err != nil {
			continue
		}
		if now.After(st.ExpiresAt) {
			if err := s.ds.Delete(ctx, doc.Path); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
