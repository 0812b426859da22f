// internal/app/store/topics/roles.go
package topicstore

import (
	"context"
	"errors"
	"sort"

	"github.com/linlinlin97264/topic-manage/internal/app/policy/topicpolicy"
	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	userstore "github.com/linlinlin97264/topic-manage/internal/app/store/users"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

// AddRole grants role to the user registered under email. Owner only.
// A user holds at most one explicit role, so granting editor to a
// reader promotes them (and vice versa). Granting a role the user
// already holds, or any role to the owner, fails with already_in_role.
//
// The role sets are mutated with commutative set operations rather than
// the versioned update path: membership changes from two admins racing
// each other merge cleanly and must not trip content editors' version
// checks.
func (s *Store) AddRole(ctx context.Context, uid, topicID, email string, role models.Role) (models.Member, error) {
	if uid == "" {
		return models.Member{}, apperror.Unauthenticated()
	}
	if !role.IsAssignable() {
		return models.Member{}, apperror.InvalidArgument("role", `must be "editor" or "reader"`)
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return models.Member{}, err
	}
	if !topicpolicy.IsOwner(t, uid) {
		return models.Member{}, apperror.PermissionDenied("only the owner can manage roles")
	}

	target, err := s.users.ResolveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.Member{}, apperror.NotFound("user", email)
		}
		return models.Member{}, apperror.Transport(err)
	}
	if target.UID == t.Owner {
		return models.Member{}, apperror.AlreadyInRole(string(models.RoleOwner))
	}
	if current, ok := topicpolicy.RoleOf(t, target.UID); ok && current == role {
		return models.Member{}, apperror.AlreadyInRole(string(role))
	}

	grant, revoke := "editors", "readers"
	if role == models.RoleReader {
		grant, revoke = "readers", "editors"
	}
	err = s.ds.Update(ctx, docstore.DocPath("topics", topicID), docstore.Fields{
		grant:  docstore.Union{Values: []string{target.UID}},
		revoke: docstore.Remove{Values: []string{target.UID}},
	})
	if err != nil {
		// The topic can vanish between load and update.
		if errors.Is(err, docstore.ErrNoDocument) {
			return models.Member{}, apperror.NotFound("topic", topicID)
		}
		return models.Member{}, apperror.Transport(err)
	}
	return models.Member{UID: target.UID, Name: target.DisplayName(), Role: role}, nil
}

// RemoveRole revokes targetUID's role, whichever set it lives in.
// Owner only. Removing a user who holds no role is a no-op, and so is
// naming the owner, who lives in neither set.
func (s *Store) RemoveRole(ctx context.Context, uid, topicID, targetUID string) error {
	if uid == "" {
		return apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return err
	}
	if !topicpolicy.IsOwner(t, uid) {
		return apperror.PermissionDenied("only the owner can manage roles")
	}
	err = s.ds.Update(ctx, docstore.DocPath("topics", topicID), docstore.Fields{
		"editors": docstore.Remove{Values: []string{targetUID}},
		"readers": docstore.Remove{Values: []string{targetUID}},
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNoDocument) {
			return apperror.NotFound("topic", topicID)
		}
		return apperror.Transport(err)
	}
	return nil
}

// Members lists everyone with access: the owner first, then editors,
// then readers, each group ordered by UID for stable output.
func (s *Store) Members(ctx context.Context, uid, topicID string) ([]models.Member, error) {
	if uid == "" {
		return nil, apperror.Unauthenticated()
	}
	t, err := s.load(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if !topicpolicy.CanAccess(t, uid) {
		return nil, apperror.PermissionDenied("you do not have access to this topic")
	}

	uids := make([]string, 0, 1+len(t.Editors)+len(t.Readers))
	uids = append(uids, t.Owner)
	uids = append(uids, t.Editors...)
	uids = append(uids, t.Readers...)
	names := s.users.DisplayNames(ctx, uids)

	out := make([]models.Member, 0, len(uids))
	out = append(out, models.Member{UID: t.Owner, Name: names[t.Owner], Role: models.RoleOwner})
	for _, group := range []struct {
		uids []string
		role models.Role
	}{
		{t.Editors, models.RoleEditor},
		{t.Readers, models.RoleReader},
	} {
		sorted := append([]string(nil), group.uids...)
		sort.Strings(sorted)
		for _, u := range sorted {
			out = append(out, models.Member{UID: u, Name: names[u], Role: group.role})
		}
	}
	return out, nil
}
