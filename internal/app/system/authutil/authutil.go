// internal/app/system/authutil/authutil.go
//
// Password validation and hashing shared by the account store and the
// credential features.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128

	// bcryptCost trades hash time for brute-force resistance.
	bcryptCost = 12
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 128 characters")
	ErrPasswordCommon   = errors.New("password is too common")
	ErrInvalidEmail     = errors.New("invalid email address")
)

// commonPasswords are rejected outright regardless of length.
var commonPasswords = map[string]bool{
	"123456":    true,
	"password":  true,
	"qwerty":    true,
	"abc123":    true,
	"iloveyou":  true,
	"letmein":   true,
	"football":  true,
	"welcome":   true,
	"monkey":    true,
	"dragon":    true,
	"111111":    true,
	"123123":    true,
	"12345678":  true,
	"123456789": true,
}

// ValidatePassword checks the password against length and common-word
// rules. It does not enforce character-class requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules returns a human-readable description of the password
// requirements, for error messages.
func PasswordRules() string {
	return "Password must be at least 6 characters and not a commonly used password."
}

// HashPassword returns the bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the bcrypt hash.
// An empty or malformed hash never matches.
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidEmail reports whether the address looks like an email. This is
// a shape check, not a deliverability check.
func ValidEmail(email string) bool {
	return isValidEmail(email)
}

func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	if dot <= 0 || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}
