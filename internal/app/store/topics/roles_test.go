package topicstore

import (
	"context"
	"errors"
	"testing"

	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

func TestAddRoleOwnerOnly(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	for _, uid := range []string{"u-ed", "u-rd", "u-x"} {
		if _, err := s.AddRole(ctx, uid, topic.ID, "stranger@example.com", models.RoleReader); !errors.Is(err, apperror.ErrPermissionDenied) {
			t.Errorf("AddRole as %s: err = %v, want permission denied", uid, err)
		}
	}
}

func TestAddRoleValidation(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	if _, err := s.AddRole(ctx, "u-own", topic.ID, "stranger@example.com", models.Role("owner")); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("grant owner: err = %v, want invalid argument", err)
	}
	if _, err := s.AddRole(ctx, "u-own", topic.ID, "stranger@example.com", models.Role("bogus")); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("bogus role: err = %v, want invalid argument", err)
	}
	if _, err := s.AddRole(ctx, "u-own", topic.ID, "nobody@example.com", models.RoleReader); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown email: err = %v, want not found", err)
	}
}

func TestAddRoleAlreadyInRole(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	if _, err := s.AddRole(ctx, "u-own", topic.ID, "editor@example.com", models.RoleEditor); !errors.Is(err, apperror.ErrAlreadyInRole) {
		t.Errorf("re-grant editor: err = %v, want already in role", err)
	}
	if _, err := s.AddRole(ctx, "u-own", topic.ID, "owner@example.com", models.RoleEditor); !errors.Is(err, apperror.ErrAlreadyInRole) {
		t.Errorf("grant to owner: err = %v, want already in role", err)
	}
}

func TestAddRolePromotesAndDemotes(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	// Promote the reader to editor: they must leave the readers set.
	m, err := s.AddRole(ctx, "u-own", topic.ID, "reader@example.com", models.RoleEditor)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if m.Role != models.RoleEditor || m.UID != "u-rd" {
		t.Errorf("member = %+v", m)
	}

	got, err := s.Get(ctx, "u-own", topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !containsUID(got.Editors, "u-rd") {
		t.Error("u-rd missing from editors after promotion")
	}
	if containsUID(got.Readers, "u-rd") {
		t.Error("u-rd still in readers after promotion")
	}
	if countUID(got.Editors, "u-rd") > 1 {
		t.Error("duplicate entry in editors")
	}

	// Demote back down.
	if _, err := s.AddRole(ctx, "u-own", topic.ID, "reader@example.com", models.RoleReader); err != nil {
		t.Fatalf("demote: %v", err)
	}
	got, err = s.Get(ctx, "u-own", topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	if containsUID(got.Editors, "u-rd") || !containsUID(got.Readers, "u-rd") {
		t.Errorf("after demotion editors=%v readers=%v", got.Editors, got.Readers)
	}
}

func TestRoleChangesDoNotBumpVersion(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	got, err := s.Get(ctx, "u-own", topic.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != topic.Version {
		t.Errorf("version = %d after role grants, want %d", got.Version, topic.Version)
	}

	// A client that read before the grants can still update.
	name := "Still fine"
	if _, err := s.Update(ctx, "u-own", topic.ID, UpdatePatch{Name: &name, ExpectedVersion: topic.Version}); err != nil {
		t.Errorf("update after role change: %v", err)
	}
}

func TestRemoveRole(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	if err := s.RemoveRole(ctx, "u-own", topic.ID, "u-ed"); err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	if _, err := s.Get(ctx, "u-ed", topic.ID); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("removed editor still has access: %v", err)
	}

	// Idempotent: removing again is a no-op.
	if err := s.RemoveRole(ctx, "u-own", topic.ID, "u-ed"); err != nil {
		t.Errorf("second remove: %v", err)
	}
	// Removing someone who never had a role is also a no-op.
	if err := s.RemoveRole(ctx, "u-own", topic.ID, "u-x"); err != nil {
		t.Errorf("remove stranger: %v", err)
	}

	// The owner lives in neither role set, so naming them is a no-op
	// and ownership survives.
	if err := s.RemoveRole(ctx, "u-own", topic.ID, "u-own"); err != nil {
		t.Errorf("remove owner: %v", err)
	}
	got, err := s.Get(ctx, "u-own", topic.ID)
	if err != nil {
		t.Fatalf("owner lost access after self-remove: %v", err)
	}
	if got.Owner != "u-own" {
		t.Errorf("owner = %q after self-remove, want u-own", got.Owner)
	}

	if err := s.RemoveRole(ctx, "u-ed", topic.ID, "u-rd"); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("non-owner remove: err = %v, want permission denied", err)
	}
}

// vanishingStore deletes a document right before an update lands on it,
// standing in for a concurrent delete from another client.
type vanishingStore struct {
	docstore.Store
	path string
}

func (v *vanishingStore) Update(ctx context.Context, path string, fields docstore.Fields) error {
	if path == v.path {
		if err := v.Store.Delete(ctx, path); err != nil {
			return err
		}
	}
	return v.Store.Update(ctx, path, fields)
}

func TestRoleChangeOnConcurrentlyDeletedTopic(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	vs := &vanishingStore{Store: s.ds, path: docstore.DocPath("topics", topic.ID)}
	racy := New(vs, s.users)

	if _, err := racy.AddRole(ctx, "u-own", topic.ID, "stranger@example.com", models.RoleReader); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AddRole on deleted topic: err = %v, want not found", err)
	}

	topic = seedTopic(t, s, ctx)
	vs.path = docstore.DocPath("topics", topic.ID)
	if err := racy.RemoveRole(ctx, "u-own", topic.ID, "u-ed"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("RemoveRole on deleted topic: err = %v, want not found", err)
	}
}

func TestMembers(t *testing.T) {
	s, ctx := fixture(t)
	topic := seedTopic(t, s, ctx)

	members, err := s.Members(ctx, "u-rd", topic.ID)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	want := []models.Member{
		{UID: "u-own", Name: "Olive Owner", Role: models.RoleOwner},
		{UID: "u-ed", Name: "Ed Editor", Role: models.RoleEditor},
		{UID: "u-rd", Name: "Rae Reader", Role: models.RoleReader},
	}
	if len(members) != len(want) {
		t.Fatalf("got %d members, want %d", len(members), len(want))
	}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("member[%d] = %+v, want %+v", i, members[i], want[i])
		}
	}

	if _, err := s.Members(ctx, "u-x", topic.ID); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("stranger: err = %v, want permission denied", err)
	}
}

func containsUID(set []string, uid string) bool {
	return countUID(set, uid) > 0
}

func countUID(set []string, uid string) int {
	n := 0
	for _, v := range set {
		if v == uid {
			n++
		}
	}
	return n
}
