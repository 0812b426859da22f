// internal/app/store/topics/topicstore.go
package topicstore

import (
	"context"
	"errors"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/text"

	"github.com/linlinlin97264/topic-manage/internal/app/policy/topicpolicy"
	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	userstore "github.com/linlinlin97264/topic-manage/internal/app/store/users"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/app/system/htmlsanitize"
	"github.com/linlinlin97264/topic-manage/internal/app/system/limits"
	"github.com/linlinlin97264/topic-manage/internal/app/system/normalize"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

// Store is the topic repository. Every operation takes the acting
// user's UID and enforces topic access itself, so handlers never touch
// authorization beyond establishing who the caller is.
//
// Versioned field updates go through Update, which checks the caller's
// expected version inside a transaction and never merges concurrent
// edits. Role-set changes go through AddRole/RemoveRole, which use
// commutative set mutation and deliberately do not bump the version.
type Store struct {
	ds    docstore.Store
	users *userstore.Store
}

func New(ds docstore.Store, users *userstore.Store) *Store {
	return &Store{ds: ds, users: users}
}

// Create makes a new topic owned by uid, starting at version 0 with
// empty role sets.
func (s *Store) Create(ctx context.Context, uid, name, description string) (models.Topic, error) {
	if uid == "" {
		return models.Topic{}, apperror.Unauthenticated()
	}
	name = normalize.Name(name)
	if err := validateName(name); err != nil {
		return models.Topic{}, err
	}
	if len(description) > limits.MaxDescriptionSize {
		return models.Topic{}, apperror.InvalidArgument("description", "too long")
	}

	now := time.Now().UTC()
	t := models.Topic{
		ID:                s.ds.NewID(),
		Name:              name,
		NameCI:            text.Fold(name),
		Description:       htmlsanitize.Sanitize(description),
		Owner:             uid,
		Editors:           []string{},
		Readers:           []string{},
		Version:           0,
		CreatedAt:         now,
		UpdatedAt:         now,
		LastUpdatedBy:     uid,
		LastUpdatedByName: s.users.DisplayName(ctx, uid),
	}
	fields, err := docstore.FieldsOf(t)
	if err != nil {
		return models.Topic{}, apperror.Transport(err)
	}
	if err := s.ds.Put(ctx, docstore.DocPath("topics", t.ID), fields); err != nil {
		return models.Topic{}, apperror.Transport(err)
	}
	t.OwnerName = t.LastUpdatedByName
	return t, nil
}

// Get loads a topic the caller can access.
func (s *Store) Get(ctx context.Context, uid, topicID string) (models.Topic, error) {
	if uid == "" {
		return models.Topic{}, apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return models.Topic{}, err
	}
	if !topicpolicy.CanAccess(t, uid) {
		return models.Topic{}, apperror.PermissionDenied("you do not have access to this topic")
	}
	s.decorate(ctx, &t)
	return t, nil
}

// List returns every topic the caller can access, ordered by folded
// name for stable display.
func (s *Store) List(ctx context.Context, uid string) ([]models.Topic, error) {
	if uid == "" {
		return nil, apperror.Unauthenticated()
	}
	docs, err := s.ds.Query(ctx, "topics", nil)
	if err != nil {
		return nil, apperror.Transport(err)
	}
	out := make([]models.Topic, 0, len(docs))
	for _, doc := range docs {
		t, err := decodeTopic(doc)
		if err != nil {
			return nil, err
		}
		if !topicpolicy.CanAccess(t, uid) {
			continue
		}
		s.decorate(ctx, &t)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NameCI != out[j].NameCI {
			return out[i].NameCI < out[j].NameCI
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// UpdatePatch carries the fields an update may change. Nil pointers
// leave the stored value untouched. ExpectedVersion must equal the
// version the caller last read.
type UpdatePatch struct {
	Name            *string
	Description     *string
	ExpectedVersion int64
}

// Update applies a partial edit to a topic's content fields. The write
// happens inside a transaction: the stored version must still equal
// ExpectedVersion, otherwise a concurrent writer won and the caller
// gets a version conflict to resolve by re-reading. On success the
// version increments by exactly one.
func (s *Store) Update(ctx context.Context, uid, topicID string, patch UpdatePatch) (models.Topic, error) {
	if uid == "" {
		return models.Topic{}, apperror.Unauthenticated()
	}
	var name string
	if patch.Name != nil {
		name = normalize.Name(*patch.Name)
		if err := validateName(name); err != nil {
			return models.Topic{}, err
		}
	}
	if patch.Description != nil && len(*patch.Description) > limits.MaxDescriptionSize {
		return models.Topic{}, apperror.InvalidArgument("description", "too long")
	}

	// Resolved before the transaction so retries stay cheap.
	updaterName := s.users.DisplayName(ctx, uid)

	path := docstore.DocPath("topics", topicID)
	var out models.Topic
	err := s.ds.RunTxn(ctx, func(tx docstore.Txn) error {
		doc, err := tx.Get(path)
		if err != nil {
			if errors.Is(err, docstore.ErrNoDocument) {
				return apperror.NotFound("topic", topicID)
			}
			return err
		}
		t, err := decodeTopic(doc)
		if err != nil {
			return err
		}
		if !topicpolicy.CanEdit(t, uid) {
			return apperror.PermissionDenied("you cannot edit this topic")
		}
		if t.Version != patch.ExpectedVersion {
			return apperror.VersionConflict("topic", topicID)
		}

		now := time.Now().UTC()
		set := docstore.Fields{
			"version":              t.Version + 1,
			"updated_at":           now,
			"last_updated_by":      uid,
			"last_updated_by_name": updaterName,
		}
		if patch.Name != nil {
			t.Name = name
			t.NameCI = text.Fold(name)
			set["name"] = t.Name
			set["name_ci"] = t.NameCI
		}
		if patch.Description != nil {
			t.Description = htmlsanitize.Sanitize(*patch.Description)
			set["description"] = t.Description
		}
		t.Version++
		t.UpdatedAt = now
		t.LastUpdatedBy = uid
		t.LastUpdatedByName = updaterName

		tx.Update(path, set)
		out = t
		return nil
	})
	if err != nil {
		return models.Topic{}, txnErr(err, topicID)
	}
	s.decorate(ctx, &out)
	return out, nil
}

// Delete removes a topic and all of its posts atomically. Only the
// owner may delete.
func (s *Store) Delete(ctx context.Context, uid, topicID string) error {
	if uid == "" {
		return apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return err
	}
	if !topicpolicy.IsOwner(t, uid) {
		return apperror.PermissionDenied("only the owner can delete a topic")
	}

	posts, err := s.ds.Query(ctx, docstore.DocPath("topics", topicID)+"/posts", nil)
	if err != nil {
		return apperror.Transport(err)
	}
	b := s.ds.Batch()
	for _, p := range posts {
		b.Delete(p.Path)
	}
	b.Delete(docstore.DocPath("topics", topicID))
	if err := b.Commit(ctx); err != nil {
		return apperror.Transport(err)
	}
	return nil
}

// load fetches and decodes a topic without an access check.
func (s *Store) load(ctx context.Context, topicID string) (models.Topic, error) {
	doc, err := s.ds.Get(ctx, docstore.DocPath("topics", topicID))
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.Topic{}, apperror.NotFound("topic", topicID)
		}
		return models.Topic{}, apperror.Transport(err)
	}
	return decodeTopic(doc)
}

// decorate fills the read-time display fields.
func (s *Store) decorate(ctx context.Context, t *models.Topic) {
	t.OwnerName = s.users.DisplayName(ctx, t.Owner)
}

func decodeTopic(doc docstore.Document) (models.Topic, error) {
	var t models.Topic
	if err := doc.Decode(&t); err != nil {
		return models.Topic{}, apperror.Transport(err)
	}
	t.ID = doc.ID
	if t.Editors == nil {
		t.Editors = []string{}
	}
	if t.Readers == nil {
		t.Readers = []string{}
	}
	return t, nil
}

func validateName(name string) error {
	if name == "" {
		return apperror.InvalidArgument("name", "is required")
	}
	if utf8.RuneCountInString(name) > limits.MaxTopicNameLen {
		return apperror.InvalidArgument("name", "too long")
	}
	return nil
}

// txnErr maps transaction failures onto the error taxonomy. Domain
// errors raised inside the callback pass through; a store-level write
// conflict surfaces as a version conflict since the caller's read is
// stale either way.
func txnErr(err error, topicID string) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, docstore.ErrTxnConflict) {
		return apperror.VersionConflict("topic", topicID)
	}
	return apperror.Transport(err)
}
