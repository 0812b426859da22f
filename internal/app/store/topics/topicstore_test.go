package topicstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	userstore "github.com/linlinlin97264/topic-manage/internal/app/store/users"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

// fixture seeds a memory-backed store with four users: an owner, an
// editor, a reader, and a stranger with no role anywhere.
func fixture(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	ds := docstore.NewMemory()
	users := userstore.New(ds)
	for _, u := range []struct{ uid, email, name string }{
		{"u-own", "owner@example.com", "Olive Owner"},
		{"u-ed", "editor@example.com", "Ed Editor"},
		{"u-rd", "reader@example.com", "Rae Reader"},
		{"u-x", "stranger@example.com", "Sam Stranger"},
	} {
		if _, err := users.EnsureProfile(ctx, u.uid, u.email, u.name); err != nil {
			t.Fatalf("seed profile %s: %v", u.uid, err)
		}
	}
	return New(ds, users), ctx
}

// seedTopic creates a topic owned by u-own with u-ed as editor and
// u-rd as reader.
func seedTopic(t *testing.T, s *Store, ctx context.Context) models.Topic {
	t.Helper()
	topic, err := s.Create(ctx, "u-own", "Gardening", "All about gardens")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.AddRole(ctx, "u-own", topic.ID, "editor@example.com", models.RoleEditor); err != nil {
		t.Fatalf("AddRole editor: %v", err)
	}
	if _, err := s.AddRole(ctx, "u-own", topic.ID, "reader@example.com", models.RoleReader); err != nil {
		t.Fatalf("AddRole reader: %v", err)
	}
	return topic
}

func TestCreate(t *testing.T) {
	s, ctx := fixture(t)

	topic, err := s.Create(ctx, "u-own", "  My Topic  ", "desc")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if topic.ID == "" {
		t.Error("expected ID to be assigned")
	}
	if topic.Name != "My Topic" {
		t.Errorf("name = %q, want trimmed", topic.Name)
	}
	if topic.Version != 0 {
		t.Errorf("version = %d, want 0", topic.Version)
	}
	if topic.Owner != "u-own" {
		t.Errorf("owner = %q", topic.Owner)
	}
	if len(topic.Editors) != 0 || len(topic.Readers) != 0 {
		t.Errorf("role sets not empty: %v %v", topic.Editors, topic.Readers)
	}
	if topic.OwnerName != "Olive Owner" {
		t.Errorf("owner name = %q", topic.OwnerName)
	}
}

func TestCreateValidation(t *testing.T) {
	s, ctx := fixture(t)

	if _, err := s.Create(ctx, "", "Name", ""); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("blank uid: err = %v", err)
	}
	if _, err := s.Create(ctx, "u-own", "   ", ""); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("blank name: err = %v", err)
	}
	if _, err := s.Create(ctx, "u-own", strings.Repeat("x", 200), ""); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("long name: err = %v", err)
	}
}

func TestCreateSanitizesDescription(t *testing.T) {
	s, ctx := fixture(t)

	topic, err := s.Create(ctx, "u-own", "Safe", "<p>ok</p><script>alert('x')</script>")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if strings.Contains(topic.Description, "script") {
		t.Errorf("description not sanitized: %q", topic.Description)
	}
	if !strings.Contains(topic.Description, "<p>ok</p>") {
		t.Errorf("safe markup dropped: %q", topic.Description)
	}
}

func TestGetEnforcesAccess(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	for _, uid := range []string{"u-own", "u-ed", "u-rd"} {
		if _, err := s.Get(ctx, uid, topic.ID); err != nil {
			t.Errorf("Get as %s: %v", uid, err)
		}
	}
	if _, err := s.Get(ctx, "u-x", topic.ID); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("stranger: err = %v, want permission denied", err)
	}
	if _, err := s.Get(ctx, "u-own", "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing topic: err = %v, want not found", err)
	}
}

func TestListFiltersByAccess(t *testing.T) {
	s, ctx := fixture(t)
	shared := seedTopic(t, s, ctx)
	private, err := s.Create(ctx, "u-own", "Private", "")
	if err != nil {
		t.Fatal(err)
	}

	own, err := s.List(ctx, "u-own")
	if err != nil {
		t.Fatalf("List owner: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("owner sees %d topics, want 2", len(own))
	}

	ed, err := s.List(ctx, "u-ed")
	if err != nil {
		t.Fatalf("List editor: %v", err)
	}
	if len(ed) != 1 || ed[0].ID != shared.ID {
		t.Errorf("editor sees %v, want only shared topic", ed)
	}

	none, err := s.List(ctx, "u-x")
	if err != nil {
		t.Fatalf("List stranger: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("stranger sees %d topics, want 0", len(none))
	}
	_ = private
}

func TestUpdateIncrementsVersion(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	name := "Renamed"
	updated, err := s.Update(ctx, "u-ed", topic.ID, UpdatePatch{
		Name:            &name,
		ExpectedVersion: topic.Version,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Version != topic.Version+1 {
		t.Errorf("version = %d, want %d", updated.Version, topic.Version+1)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.LastUpdatedBy != "u-ed" || updated.LastUpdatedByName != "Ed Editor" {
		t.Errorf("last updated by = %q / %q", updated.LastUpdatedBy, updated.LastUpdatedByName)
	}

	// Untouched fields survive a partial patch.
	if updated.Description != topic.Description {
		t.Errorf("description changed: %q", updated.Description)
	}
}

func TestUpdateVersionConflict(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	// Two clients read version 0. The first update wins.
	nameA := "From A"
	if _, err := s.Update(ctx, "u-own", topic.ID, UpdatePatch{Name: &nameA, ExpectedVersion: 0}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// The second presents the stale version and must get a conflict,
	// never a silent merge.
	nameB := "From B"
	_, err := s.Update(ctx, "u-ed", topic.ID, UpdatePatch{Name: &nameB, ExpectedVersion: 0})
	if !errors.Is(err, apperror.ErrVersionConflict) {
		t.Fatalf("stale update: err = %v, want version conflict", err)
	}

	got, err := s.Get(ctx, "u-own", topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "From A" {
		t.Errorf("name = %q, loser overwrote winner", got.Name)
	}
	if got.Version != 1 {
		t.Errorf("version = %d, want 1", got.Version)
	}

	// Re-reading and retrying with the fresh version succeeds.
	if _, err := s.Update(ctx, "u-ed", topic.ID, UpdatePatch{Name: &nameB, ExpectedVersion: got.Version}); err != nil {
		t.Errorf("retry after re-read: %v", err)
	}
}

func TestUpdatePermissions(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	name := "Nope"
	if _, err := s.Update(ctx, "u-rd", topic.ID, UpdatePatch{Name: &name, ExpectedVersion: 0}); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("reader update: err = %v, want permission denied", err)
	}
	if _, err := s.Update(ctx, "u-x", topic.ID, UpdatePatch{Name: &name, ExpectedVersion: 0}); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("stranger update: err = %v, want permission denied", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	if _, err := s.AddPost(ctx, "u-ed", topic.ID, "First", "body"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddPost(ctx, "u-own", topic.ID, "Second", "body"); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "u-ed", topic.ID); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Fatalf("editor delete: err = %v, want permission denied", err)
	}
	if err := s.Delete(ctx, "u-own", topic.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := s.Get(ctx, "u-own", topic.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("topic still readable: %v", err)
	}

	// Posts are gone with the topic.
	ds := s.ds
	docs, err := ds.Query(ctx, "topics/"+topic.ID+"/posts", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("%d orphaned posts remain", len(docs))
	}
}

func TestDeleteMissingTopic(t *testing.T) {
	s, ctx := fixture(t)
	if err := s.Delete(ctx, "u-own", "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
