// internal/app/policy/topicpolicy.go
package topicpolicy

import (
	"github.com/linlinlin97264/topic-manage/internal/domain/models"
)

// Pure role checks over a topic and a principal (user ID). No store
// access: the topic document carries everything needed, so these can be
// unit-tested without a database. An empty principal never has access.
//
// Privileges strictly nest: IsOwner implies CanEdit implies CanAccess.

// CanAccess reports whether uid may read the topic.
func CanAccess(t models.Topic, uid string) bool {
	return CanEdit(t, uid) || contains(t.Readers, uid)
}

// CanEdit reports whether uid may modify the topic's content.
func CanEdit(t models.Topic, uid string) bool {
	return IsOwner(t, uid) || contains(t.Editors, uid)
}

// IsOwner reports whether uid is the topic's owner.
func IsOwner(t models.Topic, uid string) bool {
	return uid != "" && t.Owner == uid
}

// RoleOf returns the highest-privilege role uid holds on the topic, or
// ("", false) when uid has no access at all.
func RoleOf(t models.Topic, uid string) (models.Role, bool) {
	switch {
	case IsOwner(t, uid):
		return models.RoleOwner, true
	case contains(t.Editors, uid):
		return models.RoleEditor, true
	case contains(t.Readers, uid):
		return models.RoleReader, true
	default:
		return "", false
	}
}

func contains(set []string, uid string) bool {
	if uid == "" {
		return false
	}
	for _, id := range set {
		if id == uid {
			return true
		}
	}
	return false
}
