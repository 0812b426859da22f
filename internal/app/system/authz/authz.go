// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
)

// UserCtx returns the signed-in user's uid and display name, and a
// found flag. There are no global roles; topic roles are resolved
// against the topic document by the policy package.
func UserCtx(r *http.Request) (uid string, name string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.UID == "" {
		// An empty uid in the session means session corruption; fail
		// closed so callers can trust ok.
		return "", "", false
	}
	return user.UID, user.Name, true
}
