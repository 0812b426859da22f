// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	accountstore "github.com/linlinlin97264/topic-manage/internal/app/store/accounts"
	"github.com/linlinlin97264/topic-manage/internal/app/store/oauthstate"
	userstore "github.com/linlinlin97264/topic-manage/internal/app/store/users"
	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateExpiry bounds how long a login attempt may sit between the
// redirect to Google and the callback.
const stateExpiry = 10 * time.Minute

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Config holds the Google OAuth client settings. Empty ClientID
// disables the feature.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://topichub.example.com/auth/google/callback"
}

type Handler struct {
	Accounts *accountstore.Store
	Users    *userstore.Store
	States   *oauthstate.Store
	Log      *zap.Logger

	oauth *oauth2.Config
}

func NewHandler(
	cfg Config,
	accounts *accountstore.Store,
	users *userstore.Store,
	states *oauthstate.Store,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		Accounts: accounts,
		Users:    users,
		States:   states,
		Log:      logger,
	}
	if cfg.ClientID != "" {
		h.oauth = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return h
}

// IsConfigured reports whether Google sign-in is available.
func (h *Handler) IsConfigured() bool {
	return h.oauth != nil
}

// ServeLogin handles GET /auth/google. It stores an anti-forgery state
// and redirects the browser to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		http.Error(w, "Google sign-in is not configured", http.StatusNotFound)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("google auth: generate state", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	returnURL := safeReturn(r.URL.Query().Get("return"))
	if err := h.States.Save(ctx, state, returnURL, time.Now().Add(stateExpiry)); err != nil {
		h.Log.Error("google auth: save state", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	url := h.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// ServeCallback handles GET /auth/google/callback.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		http.Error(w, "Google sign-in is not configured", http.StatusNotFound)
		return
	}

	// Google reports user-denied consent and its own errors here.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("google auth: provider returned error", zap.String("error", errParam))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	state := r.URL.Query().Get("state")
	returnURL, valid, err := h.States.Validate(ctx, state)
	if err != nil {
		h.Log.Error("google auth: validate state", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !valid {
		h.Log.Warn("google auth: invalid or expired state")
		http.Error(w, "Invalid or expired sign-in attempt. Please try again.", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.Log.Error("google auth: code exchange failed", zap.Error(err))
		http.Error(w, "Sign-in failed. Please try again.", http.StatusBadGateway)
		return
	}

	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("google auth: fetch user info failed", zap.Error(err))
		http.Error(w, "Sign-in failed. Please try again.", http.StatusBadGateway)
		return
	}
	if info.Email == "" || !info.VerifiedEmail {
		h.Log.Warn("google auth: unverified or missing email")
		http.Error(w, "Your Google account has no verified email.", http.StatusForbidden)
		return
	}

	account, err := h.Accounts.CreateExternal(ctx, info.Email, "google")
	if err != nil {
		h.Log.Error("google auth: provision account", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	profile, err := h.Users.EnsureProfile(ctx, account.UID, account.Email, info.Name)
	if err != nil {
		h.Log.Error("google auth: provision profile", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := auth.SignIn(w, r, &auth.SessionUser{
		UID:   account.UID,
		Name:  profile.DisplayName(),
		Email: account.Email,
	}); err != nil {
		h.Log.Error("google auth: sign-in failed", zap.Error(err), zap.String("uid", account.UID))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("google sign-in completed", zap.String("uid", account.UID))
	http.Redirect(w, r, safeReturn(returnURL), http.StatusSeeOther)
}

// googleUserInfo is the subset of the userinfo response we use.
type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return googleUserInfo{}, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}
	return info, nil
}

// generateState returns a URL-safe random state value.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// safeReturn restricts post-login redirects to same-site paths.
func safeReturn(url string) string {
	if url == "" || url[0] != '/' || (len(url) > 1 && url[1] == '/') {
		return "/"
	}
	return url
}
