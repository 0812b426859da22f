// Package normalize holds the canonical forms for user-supplied
// identifier fields. Stores normalize on write and on lookup so that
// "User@Example.COM" and "user@example.com" are the same key.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod lowercases and trims an auth method name ("password", "google").
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UsernameFromEmail derives a default username from the local part of
// an email address. Returns "" when the input has no local part.
func UsernameFromEmail(email string) string {
	email = Email(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return ""
	}
	return email[:at]
}
