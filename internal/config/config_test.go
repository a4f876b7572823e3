package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SYNAPSE_ENV_FILE", filepath.Join(dir, "missing.env"))
	for _, key := range []string{"HTTP_ADDR", "DATABASE_URL", "PG_DSN", "AUTH_JWT_SECRET", "JWT_SECRET", "AUTH_TOKEN_TTL", "REVIEW_HIGH_MIN", "SIGNATURE_LIBRARY", "EQUIPMENT_SEED", "CXALLOY_BASE_URL", "CXALLOY_TOKEN", "CXALLOY_PROJECT_ID", "SYNAPSE_CONFIG"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.ReviewHighMin != 80 || cfg.TokenTTL != 12*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.ValidateServer(); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestLoadEnvFileAndYAMLOverlay(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("CXALLOY_TOKEN=from-dotenv\nREVIEW_HIGH_MIN=75\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("SYNAPSE_ENV_FILE", envFile)
	// godotenv never overrides variables that are already set, even to "".
	os.Unsetenv("CXALLOY_TOKEN")
	os.Unsetenv("REVIEW_HIGH_MIN")

	yamlFile := filepath.Join(dir, "synapse.yaml")
	content := "review_high_min: 85\nsignature_library: /etc/synapse/signatures.yaml\ncxalloy:\n  project_id: \"42\"\n"
	if err := os.WriteFile(yamlFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("SYNAPSE_CONFIG", yamlFile)
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ReviewHighMin != 85 {
		t.Fatalf("yaml should override env, got %d", cfg.ReviewHighMin)
	}
	if cfg.CxAlloy.Token != "from-dotenv" || cfg.CxAlloy.ProjectID != "42" {
		t.Fatalf("unexpected cxalloy: %+v", cfg.CxAlloy)
	}
	if cfg.SignatureLibraryPath != "/etc/synapse/signatures.yaml" {
		t.Fatalf("unexpected library path %q", cfg.SignatureLibraryPath)
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRejectsThreshold(t *testing.T) {
	isolate(t)
	t.Setenv("REVIEW_HIGH_MIN", "150")
	if _, err := Load(); err == nil {
		t.Fatalf("expected threshold error")
	}
}
