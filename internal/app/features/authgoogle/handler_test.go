package authgoogle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	accountstore "github.com/linlinlin97264/topic-manage/internal/app/store/accounts"
	"github.com/linlinlin97264/topic-manage/internal/app/store/docstore"
	"github.com/linlinlin97264/topic-manage/internal/app/store/oauthstate"
	userstore "github.com/linlinlin97264/topic-manage/internal/app/store/users"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, cfg Config) *Handler {
	t.Helper()
	ds := docstore.NewMemory()
	return NewHandler(cfg, accountstore.New(ds), userstore.New(ds), oauthstate.New(ds), zap.NewNop())
}

func TestIsConfigured(t *testing.T) {
	if newTestHandler(t, Config{}).IsConfigured() {
		t.Error("expected unconfigured handler")
	}
	if !newTestHandler(t, Config{ClientID: "id", ClientSecret: "secret"}).IsConfigured() {
		t.Error("expected configured handler")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h := newTestHandler(t, Config{})

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/auth/google", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeLogin_RedirectsWithState(t *testing.T) {
	h := newTestHandler(t, Config{
		ClientID:    "client-id",
		RedirectURL: "https://topichub.test/auth/google/callback",
	})

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/auth/google?return=/topics", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	if !strings.Contains(loc.Host, "google") {
		t.Errorf("redirect host = %q, want google endpoint", loc.Host)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("redirect has no state parameter")
	}

	// The state was persisted and round-trips with the return URL.
	returnURL, valid, err := h.States.Validate(context.Background(), state)
	if err != nil || !valid {
		t.Fatalf("state not stored: valid=%v err=%v", valid, err)
	}
	if returnURL != "/topics" {
		t.Errorf("returnURL = %q, want /topics", returnURL)
	}
}

func TestServeCallback_RejectsUnknownState(t *testing.T) {
	h := newTestHandler(t, Config{ClientID: "client-id"})

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?state=bogus&code=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServeCallback_ProviderError(t *testing.T) {
	h := newTestHandler(t, Config{ClientID: "client-id"})

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?error=access_denied", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303 redirect home", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect = %q, want /", loc)
	}
}

func TestSafeReturn(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/topics", "/topics"},
		{"//evil.example.com", "/"},
		{"https://evil.example.com", "/"},
		{"/topics?id=abc", "/topics?id=abc"},
	}
	for _, c := range cases {
		if got := safeReturn(c.in); got != c.want {
			t.Errorf("safeReturn(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
