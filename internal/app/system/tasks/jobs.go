// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linlinlin97264/topic-manage/internal/app/store/oauthstate"
	resetstore "github.com/linlinlin97264/topic-manage/internal/app/store/passwordreset"
)

// OAuthStateCleanupJob removes expired OAuth state tokens. This is a
// backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(states *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := states.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// PasswordResetCleanupJob removes expired password reset tokens that
// the TTL index has not reaped yet.
func PasswordResetCleanupJob(resets *resetstore.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "password-reset-cleanup",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := resets.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired password resets", zap.Int64("count", count))
			}
			return nil
		},
	}
}
