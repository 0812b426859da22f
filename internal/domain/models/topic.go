// internal/domain/models/topic.go
package models

import (
	"time"
)

// Role names a level of access to a topic. The owner role is implicit
// (stored in Topic.Owner, never in a role set) and outranks editor,
// which outranks reader.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleReader Role = "reader"
)

// IsAssignable reports whether the role can be granted to a user.
// Ownership is set once at creation and never granted afterward.
func (r Role) IsAssignable() bool {
	return r == RoleEditor || r == RoleReader
}

// Topic is the root entity. Access is determined by Owner plus the
// Editors/Readers sets; a user appears in at most one of the three.
//
// Version is the optimistic-concurrency stamp: it starts at 0 and is
// incremented by exactly 1 on every successful update. Callers must
// present the version they read when updating; a mismatch means a
// concurrent writer got there first.
type Topic struct {
	ID          string `bson:"_id,omitempty" json:"id"`
	Name        string `bson:"name" json:"name"`
	NameCI      string `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	Owner     string `bson:"owner" json:"owner"`
	OwnerName string `bson:"-" json:"owner_name,omitempty"` // resolved at read time, never stored

	// Editors and Readers are sets: no duplicates, and never the owner.
	// The repository enforces both invariants.
	Editors []string `bson:"editors" json:"editors"`
	Readers []string `bson:"readers" json:"readers"`

	Version int64 `bson:"version" json:"version"`

	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
	LastUpdatedBy     string    `bson:"last_updated_by,omitempty" json:"last_updated_by,omitempty"`
	LastUpdatedByName string    `bson:"last_updated_by_name,omitempty" json:"last_updated_by_name,omitempty"`
}

// Member is one user's standing on a topic, with the display name
// resolved from the user directory.
type Member struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
