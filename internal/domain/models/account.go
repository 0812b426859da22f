// internal/domain/models/account.go
package models

import (
	"time"
)

// Account is the identity-provider record behind sign-in. It is distinct
// from UserProfile: the account holds credentials, the profile holds the
// public directory entry. The privileged user lookup queries accounts,
// not profiles.
type Account struct {
	UID          string `bson:"_id" json:"uid"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string `bson:"auth_method" json:"auth_method"` // password | google

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
