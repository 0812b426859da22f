// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/linlinlin97264/topic-manage/internal/app/store/oauthstate"
	resetstore "github.com/linlinlin97264/topic-manage/internal/app/store/passwordreset"
	"github.com/linlinlin97264/topic-manage/internal/app/system/tasks"
	"github.com/linlinlin97264/topic-manage/internal/app/system/timeouts"
)

// janitor sweeps expired tokens in the background. Started here,
// stopped in Shutdown.
var janitor *tasks.Runner

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It is the
// place to warm caches or perform any app-wide setup that depends on config
// and backends.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("database timeouts overridden from environment", zap.Int("count", n))
	}

	janitor = tasks.NewRunner(logger,
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.Docs), logger),
		tasks.PasswordResetCleanupJob(resetstore.New(deps.Docs, appCfg.ResetExpiry), logger),
	)
	janitor.Start()

	logger.Info("topichub ready",
		zap.String("env", coreCfg.Env),
		zap.Bool("google_signin", appCfg.GoogleClientID != ""),
		zap.Bool("outbound_mail", appCfg.MailSMTPHost != ""))
	return nil
}
