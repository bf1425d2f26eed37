package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID": "marketfront-dev",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.IdleTimeout != 120*time.Second {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Firestore.ProjectID != "marketfront-dev" {
		t.Errorf("unexpected firestore project: %s", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "marketfront-dev" {
		t.Errorf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.ModerationTopic != "" || cfg.PubSub.OrdersTopic != "" {
		t.Errorf("expected publishing disabled by default, got %+v", cfg.PubSub)
	}
	if cfg.Storage.ImagesBucket != "" {
		t.Errorf("expected no default images bucket, got %s", cfg.Storage.ImagesBucket)
	}
	if cfg.Moderation.RecoveryWindow != 7*24*time.Hour {
		t.Errorf("unexpected default recovery window: %s", cfg.Moderation.RecoveryWindow)
	}
	if cfg.Firestore.TxAttempts != 5 {
		t.Errorf("unexpected default tx attempts: %d", cfg.Firestore.TxAttempts)
	}
	if cfg.Firestore.TxTimeout != 15*time.Second {
		t.Errorf("unexpected default tx timeout: %s", cfg.Firestore.TxTimeout)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                "9090",
		"API_SERVER_READ_TIMEOUT":        "20s",
		"API_SERVER_WRITE_TIMEOUT":       "25s",
		"API_SERVER_IDLE_TIMEOUT":        "2m",
		"API_FIRESTORE_PROJECT_ID":       "marketfront-prod",
		"API_FIRESTORE_EMULATOR_HOST":    "localhost:8200",
		"API_STORAGE_IMAGES_BUCKET":      "marketfront-images",
		"API_PUBSUB_PROJECT_ID":          "marketfront-events",
		"API_PUBSUB_MODERATION_TOPIC":    "moderation-decisions",
		"API_PUBSUB_ORDERS_TOPIC":        "order-events",
		"API_FIRESTORE_TX_ATTEMPTS":      "8",
		"API_FIRESTORE_TX_TIMEOUT":       "30s",
		"API_MODERATION_RECOVERY_WINDOW": "72h",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 25*time.Second {
		t.Errorf("unexpected write timeout: %s", cfg.Server.WriteTimeout)
	}
	if cfg.Firestore.EmulatorHost != "localhost:8200" {
		t.Errorf("unexpected emulator host: %s", cfg.Firestore.EmulatorHost)
	}
	if cfg.Storage.ImagesBucket != "marketfront-images" {
		t.Errorf("unexpected images bucket: %s", cfg.Storage.ImagesBucket)
	}
	if cfg.PubSub.ProjectID != "marketfront-events" {
		t.Errorf("unexpected pubsub project: %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.ModerationTopic != "moderation-decisions" {
		t.Errorf("unexpected moderation topic: %s", cfg.PubSub.ModerationTopic)
	}
	if cfg.Moderation.RecoveryWindow != 72*time.Hour {
		t.Errorf("unexpected recovery window: %s", cfg.Moderation.RecoveryWindow)
	}
	if cfg.Firestore.TxAttempts != 8 {
		t.Errorf("unexpected tx attempts: %d", cfg.Firestore.TxAttempts)
	}
	if cfg.Firestore.TxTimeout != 30*time.Second {
		t.Errorf("unexpected tx timeout: %s", cfg.Firestore.TxTimeout)
	}
}

func TestLoadRejectsNonPositiveTxAttempts(t *testing.T) {
	env := map[string]string{
		"API_FIRESTORE_PROJECT_ID":  "marketfront-dev",
		"API_FIRESTORE_TX_ATTEMPTS": "0",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	found := false
	for _, field := range validation.Fields() {
		if field == "Firestore.TxAttempts" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Firestore.TxAttempts to be reported, got %v", validation.Fields())
	}
}

func TestLoadMissingProjectID(t *testing.T) {
	_, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	found := false
	for _, field := range validation.Fields() {
		if field == "Firestore.ProjectID" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Firestore.ProjectID to be reported, got %v", validation.Fields())
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	contents := "API_FIRESTORE_PROJECT_ID=dotenv-project\nAPI_SERVER_PORT=7070\n"
	if err := os.WriteFile(envFile, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithEnvFile(envFile), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firestore.ProjectID != "dotenv-project" {
		t.Errorf("unexpected project id: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
}

func TestLoadEnvMapTakesPrecedenceOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("API_SERVER_PORT=7070\nAPI_FIRESTORE_PROJECT_ID=dotenv-project\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(
		WithEnvFile(envFile),
		WithEnvMap(map[string]string{"API_SERVER_PORT": "9595"}),
		WithoutSystemEnv(),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9595" {
		t.Errorf("expected env map to win, got %s", cfg.Server.Port)
	}
}
