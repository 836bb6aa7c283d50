package models

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Settings holds the resolved configuration read from .courrierconfig via Viper.
type Settings struct {
	APIBaseURL string    `yaml:"api_base_url" mapstructure:"api_base_url"`
	StorageDir string    `yaml:"storage_dir" mapstructure:"storage_dir"`
	EventLog   bool      `yaml:"event_log" mapstructure:"event_log"`
	Log        LogConfig `yaml:"log" mapstructure:"log"`
}
