package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/courrier/pkg/models"
)

// --- Helper ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newTestConfigManager(basePath, build string, env map[string]string) *viperConfigManager {
	cm := NewConfigurationManager(basePath, build).(*viperConfigManager)
	cm.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	return cm
}

// --- LoadSettings tests ---

func TestLoadSettings_Defaults_WhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cm := newTestConfigManager(dir, "", nil)

	cfg, err := cm.LoadSettings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, DefaultAPIBaseURL)
	}
	if cfg.StorageDir != filepath.Join(dir, "data") {
		t.Errorf("StorageDir = %q", cfg.StorageDir)
	}
	if !cfg.EventLog {
		t.Error("EventLog should default to true")
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if err := cm.ValidateSettings(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadSettings_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, `api:
  base_url: http://localhost:3000
storage:
  dir: letters
  event_log: false
log:
  level: debug
  format: json
`)
	cm := newTestConfigManager(dir, "", nil)

	cfg, err := cm.LoadSettings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:3000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.StorageDir != filepath.Join(dir, "letters") {
		t.Errorf("relative storage dir should be resolved against the base path, got %q", cfg.StorageDir)
	}
	if cfg.EventLog {
		t.Error("EventLog should be false")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadSettings_AbsoluteStorageDirKept(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(t.TempDir(), "store")
	writeFile(t, dir, ConfigFileName, "storage:\n  dir: "+abs+"\n")

	cfg, err := newTestConfigManager(dir, "", nil).LoadSettings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StorageDir != abs {
		t.Errorf("StorageDir = %q, want %q", cfg.StorageDir, abs)
	}
}

func TestLoadSettings_APIBaseURLPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, "api:\n  base_url: http://from-file\n")

	tests := []struct {
		name  string
		build string
		env   map[string]string
		want  string
	}{
		{"file only", "", nil, "http://from-file"},
		{"build beats file", "https://from-build", nil, "https://from-build"},
		{"env beats build", "https://from-build", map[string]string{APIBaseURLEnv: "https://from-env"}, "https://from-env"},
		{"blank env ignored", "https://from-build", map[string]string{APIBaseURLEnv: "  "}, "https://from-build"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := newTestConfigManager(dir, tt.build, tt.env).LoadSettings()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.APIBaseURL != tt.want {
				t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, tt.want)
			}
		})
	}
}

func TestLoadSettings_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFileName, "api: [unclosed\n")

	if _, err := newTestConfigManager(dir, "", nil).LoadSettings(); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

// --- ValidateSettings tests ---

func TestValidateSettings_Errors(t *testing.T) {
	dir := t.TempDir()
	cm := newTestConfigManager(dir, "", nil)

	tests := []struct {
		name   string
		mutate func(cfg *models.Settings)
		want   string
	}{
		{"relative url", func(c *models.Settings) { c.APIBaseURL = "/api" }, "api.base_url"},
		{"ftp url", func(c *models.Settings) { c.APIBaseURL = "ftp://example.com" }, "api.base_url"},
		{"empty storage", func(c *models.Settings) { c.StorageDir = "" }, "storage.dir"},
		{"bad level", func(c *models.Settings) { c.Log.Level = "verbose" }, "log.level"},
		{"bad format", func(c *models.Settings) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultSettings(dir)
			tt.mutate(cfg)
			err := cm.ValidateSettings(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err.Error(), tt.want)
			}
		})
	}

	if err := cm.ValidateSettings(nil); err == nil {
		t.Error("expected error for nil settings")
	}
}

func TestValidateSettings_ReportsAllProblems(t *testing.T) {
	cm := newTestConfigManager(t.TempDir(), "", nil)
	cfg := defaultSettings("/tmp")
	cfg.APIBaseURL = "nope"
	cfg.Log.Level = "loud"

	err := cm.ValidateSettings(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Count(err.Error(), "\n  - ") != 2 {
		t.Errorf("expected two problems, got %q", err.Error())
	}
}
