// internal/app/features/register/handler.go
package register

import (
	"context"
	"errors"
	"net/http"
	"strings"

	accountstore "github.com/linlinlin97264/topic-manage/internal/app/store/accounts"
	userstore "github.com/linlinlin97264/topic-manage/internal/app/store/users"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
	"github.com/linlinlin97264/topic-manage/internal/app/system/authutil"
	"github.com/linlinlin97264/topic-manage/internal/app/system/httpjson"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts *accountstore.Store
	Users    *userstore.Store
	Log      *zap.Logger
}

func NewHandler(accounts *accountstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: accounts,
		Users:    users,
		Log:      logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type sessionResponse struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// HandleRegister handles POST /register. On success the caller is
// signed in and gets 201 with the new identity.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if !authutil.ValidEmail(email) {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("email", "a valid email address is required"))
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("password", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	account, err := h.Accounts.Create(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, accountstore.ErrDuplicateEmail) {
			httpjson.Write(w, h.Log, http.StatusConflict, httpjson.ErrorBody{
				Error: httpjson.ErrorDetail{
					Code:    "duplicate_email",
					Message: "an account with this email already exists",
					Field:   "email",
				},
			})
			return
		}
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	profile, err := h.Users.EnsureProfile(ctx, account.UID, account.Email, strings.TrimSpace(req.Username))
	if err != nil {
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	if err := auth.SignIn(w, r, &auth.SessionUser{
		UID:   account.UID,
		Name:  profile.DisplayName(),
		Email: account.Email,
	}); err != nil {
		h.Log.Error("register: sign-in failed", zap.Error(err), zap.String("uid", account.UID))
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	h.Log.Info("account registered", zap.String("uid", account.UID))
	httpjson.Write(w, h.Log, http.StatusCreated, sessionResponse{
		UID:      account.UID,
		Email:    account.Email,
		Username: profile.Username,
	})
}
