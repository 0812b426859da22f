// internal/domain/models/user.go
package models

import (
	"time"
)

// UserProfile is the directory record for a user. It is created lazily
// the first time a user authenticates and is never deleted; topics and
// posts reference it by UID only.
type UserProfile struct {
	UID      string `bson:"_id" json:"uid"`
	Email    string `bson:"email" json:"email"`
	Username string `bson:"username" json:"username"` // defaults to the local part of the email

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// DisplayName returns the best human-readable name for the profile.
func (u UserProfile) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return "Unknown user"
}
