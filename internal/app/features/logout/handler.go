// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// HandleLogout handles POST /logout. Signing out an anonymous caller
// is a no-op, not an error.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(w, r); err != nil {
		// The deletion cookie was still written; log and move on.
		h.Log.Warn("logout: clear session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
