// internal/app/features/userlookup/handler.go
package userlookup

import (
	"context"
	"errors"
	"net/http"
	"strings"

	accountstore "github.com/linlinlin97264/topic-manage/internal/app/store/accounts"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/app/system/httpjson"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts *accountstore.Store
	Log      *zap.Logger
}

func NewHandler(accounts *accountstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Accounts: accounts, Log: logger}
}

type lookupResponse struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// HandleLookup handles GET /api/users/lookup?email=. It resolves
// against registered accounts, not the profile directory, so only
// addresses that can actually sign in are found.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("email", "email query parameter is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	account, err := h.Accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accountstore.ErrNotFound) {
			httpjson.WriteError(w, h.Log, apperror.NotFound("user", email))
			return
		}
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	httpjson.Write(w, h.Log, http.StatusOK, lookupResponse{
		UID:   account.UID,
		Email: account.Email,
	})
}
