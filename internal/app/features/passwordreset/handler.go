// internal/app/features/passwordreset/handler.go
package passwordreset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	accountstore "github.com/linlinlin97264/topic-manage/internal/app/store/accounts"
	resetstore "github.com/linlinlin97264/topic-manage/internal/app/store/passwordreset"
	"github.com/linlinlin97264/topic-manage/internal/app/system/apperror"
	"github.com/linlinlin97264/topic-manage/internal/app/system/authutil"
	"github.com/linlinlin97264/topic-manage/internal/app/system/httpjson"
	"github.com/linlinlin97264/topic-manage/internal/app/system/mailer"
	"github.com/linlinlin97264/topic-manage/internal/app/system/ratelimit"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	Accounts *accountstore.Store
	Resets   *resetstore.Store
	Mailer   *mailer.Mailer
	Limiter  *ratelimit.Limiter
	BaseURL  string // e.g. "https://topichub.example.com"
	SiteName string
	Log      *zap.Logger
}

func NewHandler(
	accounts *accountstore.Store,
	resets *resetstore.Store,
	mail *mailer.Mailer,
	baseURL, siteName string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Accounts: accounts,
		Resets:   resets,
		Mailer:   mail,
		Limiter:  ratelimit.New(10, time.Minute),
		BaseURL:  baseURL,
		SiteName: siteName,
		Log:      logger,
	}
}

type requestBody struct {
	Email string `json:"email"`
}

type confirmBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleRequest handles POST /password-reset. The response is 202 for
// every well-formed request, whether or not the email is registered,
// so the endpoint cannot be used to probe for accounts.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	var req requestBody
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("email", "email is required"))
		return
	}

	// The store already caps requests per account; this caps total
	// traffic from one source.
	if !h.Limiter.Allow(ratelimit.ClientIP(r)) {
		httpjson.Write(w, h.Log, http.StatusTooManyRequests, httpjson.ErrorBody{
			Error: httpjson.ErrorDetail{
				Code:    "rate_limited",
				Message: "too many reset requests, try again later",
			},
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	account, err := h.Accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, accountstore.ErrNotFound):
		// Accepted, silently dropped.
	case err != nil:
		h.Log.Error("password reset: account lookup failed", zap.Error(err))
	default:
		h.sendResetEmail(ctx, account.UID, account.Email)
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) sendResetEmail(ctx context.Context, uid, email string) {
	token, err := h.Resets.Create(ctx, uid, email)
	if err != nil {
		if errors.Is(err, resetstore.ErrTooManyRequests) {
			h.Log.Warn("password reset: rate limited", zap.String("uid", uid))
			return
		}
		h.Log.Error("password reset: create token failed", zap.Error(err), zap.String("uid", uid))
		return
	}

	msg := mailer.BuildPasswordResetEmail(mailer.PasswordResetEmailData{
		SiteName:  h.SiteName,
		ResetLink: fmt.Sprintf("%s/reset-password?token=%s", h.BaseURL, token),
		ExpiresIn: formatExpiry(h.Resets.Expiry()),
	})
	msg.To = email
	if err := h.Mailer.Send(msg); err != nil {
		h.Log.Error("password reset: send email failed", zap.Error(err), zap.String("uid", uid))
		return
	}
	h.Log.Info("password reset email sent", zap.String("uid", uid))
}

// HandleConfirm handles POST /password-reset/confirm.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmBody
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, h.Log, err)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("token", "token is required"))
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		httpjson.WriteError(w, h.Log, apperror.InvalidArgument("password", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reset, err := h.Resets.Consume(ctx, req.Token)
	if err != nil {
		if errors.Is(err, resetstore.ErrNotFound) {
			httpjson.WriteError(w, h.Log, apperror.InvalidArgument("token", "invalid or expired reset token"))
			return
		}
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	if err := h.Accounts.SetPassword(ctx, reset.UID, req.Password); err != nil {
		httpjson.WriteError(w, h.Log, apperror.Transport(err))
		return
	}

	h.Log.Info("password reset completed", zap.String("uid", reset.UID))
	w.WriteHeader(http.StatusNoContent)
}

func formatExpiry(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := minutes / 60
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
