// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	accountstore "github.com/linlinlin97264/topic-manage/internal/app/store/accounts"
	userstore "github.com/linlinlin97264/topic-manage/internal/app/store/users"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
	"github.com/linlinlin97264/topic-manage/internal/app/system/httpjson"
	"github.com/linlinlin97264/topic-manage/internal/app/system/ratelimit"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts *accountstore.Store
	Users    *userstore.Store
	Limiter  *ratelimit.LoginLimiter
	Log      *zap.Logger
}

func NewHandler(accounts *accountstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: accounts,
		Users:    users,
		Limiter:  ratelimit.NewLoginLimiter(),
		Log:      logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// HandleLogin handles POST /login. Missing accounts and wrong
// passwords produce the same response so the endpoint does not leak
// which emails are registered.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("email", "email is required"))
		return
	}
	if req.Password == "" {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("password", "password is required"))
		return
	}

	if !h.Limiter.Check(r, email) {
		h.Log.Warn("login throttled", zap.String("ip", ratelimit.ClientIP(r)))
		httpjson.Write(w, h.Log, http.StatusTooManyRequests, httpjson.ErrorBody{
			Error: httpjson.ErrorDetail{
				Code:    "rate_limited",
				Message: "too many login attempts, try again later",
			},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	account, err := h.Accounts.Authenticate(ctx, email, req.Password)
	if err != nil {
		if errors.Is(err, accountstore.ErrBadCredentials) {
			httpjson.Write(w, h.Log, http.StatusUnauthorized, httpjson.ErrorBody{
				Error: httpjson.ErrorDetail{
					Code:    "bad_credentials",
					Message: "invalid email or password",
				},
			})
			return
		}
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	h.Limiter.Success(email)

	// Profiles are created lazily on first successful sign-in, so
	// accounts provisioned out of band still get a directory entry.
	profile, err := h.Users.EnsureProfile(ctx, account.UID, account.Email, "")
	if err != nil {
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	if err := auth.SignIn(w, r, &auth.SessionUser{
		UID:   account.UID,
		Name:  profile.DisplayName(),
		Email: account.Email,
	}); err != nil {
		h.Log.Error("login: sign-in failed", zap.Error(err), zap.String("uid", account.UID))
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	httpjson.Write(w, h.Log, http.StatusOK, sessionResponse{
		UID:      account.UID,
		Email:    account.Email,
		Username: profile.Username,
	})
}
