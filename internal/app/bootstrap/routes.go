// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authgooglefeature "github.com/linlinlin97264/topic-manage/internal/app/features/authgoogle"
	healthfeature "github.com/linlinlin97264/topic-manage/internal/app/features/health"
	loginfeature "github.com/linlinlin97264/topic-manage/internal/app/features/login"
	logoutfeature "github.com/linlinlin97264/topic-manage/internal/app/features/logout"
	passwordresetfeature "github.com/linlinlin97264/topic-manage/internal/app/features/passwordreset"
	registerfeature "github.com/linlinlin97264/topic-manage/internal/app/features/register"
	topicsfeature "github.com/linlinlin97264/topic-manage/internal/app/features/topics"
	userlookupfeature "github.com/linlinlin97264/topic-manage/internal/app/features/userlookup"
	accountstore "github.com/linlinlin97264/topic-manage/internal/app/store/accounts"
	"github.com/linlinlin97264/topic-manage/internal/app/store/oauthstate"
	resetstore "github.com/linlinlin97264/topic-manage/internal/app/store/passwordreset"
	topicstore "github.com/linlinlin97264/topic-manage/internal/app/store/topics"
	userstore "github.com/linlinlin97264/topic-manage/internal/app/store/users"
	"github.com/linlinlin97264/topic-manage/internal/app/system/auth"
	"github.com/linlinlin97264/topic-manage/internal/app/system/mailer"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// TopicHub builds its domain stores on the shared document store,
// installs session middleware, and mounts the JSON API: account
// endpoints at the root and topic endpoints under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	// Domain stores share one document store.
	users := userstore.New(deps.Docs)
	accounts := accountstore.New(deps.Docs)
	topics := topicstore.New(deps.Docs, users)
	resets := resetstore.New(deps.Docs, appCfg.ResetExpiry)
	states := oauthstate.New(deps.Docs)

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     strconv.Itoa(appCfg.MailSMTPPort),
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
	}, logger)
	if !mail.Enabled() {
		logger.Warn("outbound mail disabled, password reset emails will be dropped")
	}

	r := chi.NewRouter()

	// Global auth middleware: loads the signed-in user into context and
	// re-validates the profile on every request, so deleted accounts
	// lose access immediately.
	r.Use(auth.LoadSessionUser(userstore.NewFetcher(users)))

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Account lifecycle
	r.Mount("/register", registerfeature.Routes(registerfeature.NewHandler(accounts, users, logger)))
	r.Mount("/login", loginfeature.Routes(loginfeature.NewHandler(accounts, users, logger)))
	r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(logger)))
	r.Mount("/password-reset", passwordresetfeature.Routes(passwordresetfeature.NewHandler(
		accounts, resets, mail, appCfg.BaseURL, appCfg.SiteName, logger)))

	google := authgooglefeature.NewHandler(authgooglefeature.Config{
		ClientID:     appCfg.GoogleClientID,
		ClientSecret: appCfg.GoogleClientSecret,
		RedirectURL:  appCfg.BaseURL + "/auth/google/callback",
	}, accounts, users, states, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(google))

	// JSON API (signed-in users only, enforced per feature)
	r.Mount("/api/users", userlookupfeature.Routes(userlookupfeature.NewHandler(accounts, logger)))
	r.Mount("/api/topics", topicsfeature.Routes(topicsfeature.NewHandler(topics, logger)))

	return r, nil
}
