// Package core contains the business logic for courrier: the letter type
// catalog, the dynamic form engine, prompt and header assembly, statistics,
// configuration, and the letter lifecycle manager.
package core

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/courrier/pkg/models"
)

// DefaultAPIBaseURL is used when neither the environment, the build nor the
// config file provides a generation service URL.
const DefaultAPIBaseURL = "https://assistant-backend-yrbx.onrender.com"

// APIBaseURLEnv overrides every other source of the service base URL.
const APIBaseURLEnv = "API_BASE_URL"

// ConfigFileName is the Viper config name looked up in the base path.
const ConfigFileName = ".courrierconfig"

// ConfigurationManager loads and validates courrier settings.
type ConfigurationManager interface {
	LoadSettings() (*models.Settings, error)
	ValidateSettings(s *models.Settings) error
}

// viperConfigManager implements ConfigurationManager using Viper for reading
// the YAML config file and COURRIER_* environment variables.
type viperConfigManager struct {
	basePath string
	// buildAPIBaseURL is injected at build time and ranks below the
	// environment override but above the config file.
	buildAPIBaseURL string
	lookupEnv       func(string) (string, bool)
}

// NewConfigurationManager creates a ConfigurationManager reading
// .courrierconfig from basePath. buildAPIBaseURL may be empty.
func NewConfigurationManager(basePath, buildAPIBaseURL string) ConfigurationManager {
	return &viperConfigManager{
		basePath:        basePath,
		buildAPIBaseURL: buildAPIBaseURL,
		lookupEnv:       os.LookupEnv,
	}
}

func defaultSettings(basePath string) *models.Settings {
	return &models.Settings{
		APIBaseURL: DefaultAPIBaseURL,
		StorageDir: filepath.Join(basePath, "data"),
		EventLog:   true,
		Log: models.LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadSettings reads the config file when present. A missing file yields the
// defaults.
func (cm *viperConfigManager) LoadSettings() (*models.Settings, error) {
	cfg := defaultSettings(cm.basePath)

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("COURRIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", cfg.APIBaseURL)
	v.SetDefault("storage.dir", cfg.StorageDir)
	v.SetDefault("storage.event_log", cfg.EventLog)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.APIBaseURL = v.GetString("api.base_url")
	cfg.StorageDir = v.GetString("storage.dir")
	cfg.EventLog = v.GetBool("storage.event_log")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	if !filepath.IsAbs(cfg.StorageDir) {
		cfg.StorageDir = filepath.Join(cm.basePath, cfg.StorageDir)
	}

	// Base URL precedence: API_BASE_URL, build-time value, config file, default.
	if env, ok := cm.lookupEnv(APIBaseURLEnv); ok && strings.TrimSpace(env) != "" {
		cfg.APIBaseURL = strings.TrimSpace(env)
	} else if cm.buildAPIBaseURL != "" {
		cfg.APIBaseURL = cm.buildAPIBaseURL
	}

	return cfg, nil
}

// ValidateSettings checks settings for invalid values and reports all
// problems at once.
func (cm *viperConfigManager) ValidateSettings(s *models.Settings) error {
	if s == nil {
		return fmt.Errorf("settings are nil")
	}

	var errs []string

	u, err := url.Parse(s.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url %q must be an absolute http(s) URL", s.APIBaseURL))
	}

	if s.StorageDir == "" {
		errs = append(errs, "storage.dir must not be empty")
	}

	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: debug, info, warn, error", s.Log.Level))
	}

	switch strings.ToLower(s.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is invalid, must be text or json", s.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
