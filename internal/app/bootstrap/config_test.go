package bootstrap

import (
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "topic_hub_test",
		SessionKey:    "a-strong-key-0123456789ABCDEF0123456789",
		ResetExpiry:   30 * time.Minute,
	}
}

func TestValidateConfig_Accepts(t *testing.T) {
	core := &config.CoreConfig{Env: "dev"}
	if err := ValidateConfig(core, validAppConfig(), zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestValidateConfig_RejectsBadMongoURI(t *testing.T) {
	cfg := validAppConfig()
	cfg.MongoURI = "not-a-mongo-uri"
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for invalid mongo URI")
	}
}

func TestValidateConfig_RejectsDevKeyInProd(t *testing.T) {
	cfg := validAppConfig()
	cfg.SessionKey = "dev-only-change-me-please-0123456789ABCDEF"
	if err := ValidateConfig(&config.CoreConfig{Env: "prod"}, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for default session key in prod")
	}
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err != nil {
		t.Errorf("dev key should be allowed outside prod: %v", err)
	}
}

func TestValidateConfig_RejectsHalfGoogleCredentials(t *testing.T) {
	cfg := validAppConfig()
	cfg.GoogleClientID = "client-id"
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err == nil {
		t.Error("expected error when only client ID is set")
	}
	cfg.GoogleClientSecret = "secret"
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err != nil {
		t.Errorf("both credentials set should pass: %v", err)
	}
}

func TestValidateConfig_RejectsNonPositiveResetExpiry(t *testing.T) {
	cfg := validAppConfig()
	cfg.ResetExpiry = 0
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err == nil {
		t.Error("expected error for zero reset expiry")
	}
}
