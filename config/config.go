package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".throttlarr"))
		}

		// Check /etc
		v.AddConfigPath("/etc/throttlarr/")
	}

	// Environment overrides, e.g. THROTTLARR_QBITTORRENT_PASSWORD
	v.SetEnvPrefix("throttlarr")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal
	// unless the key has a default, so bind the required ones explicitly.
	for _, key := range []string{
		"qbittorrent.url",
		"qbittorrent.username",
		"qbittorrent.password",
		"jellyfin.url",
		"jellyfin.api_token",
	} {
		_ = v.BindEnv(key)
	}

	// Read config file. A missing file is fine when the environment
	// supplies everything; validation below catches what is still unset.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Throttle defaults
	v.SetDefault("qbittorrent.upload_limit", 1000)

	// Sampling defaults
	v.SetDefault("jellyfin.active_within_seconds", 5)
	v.SetDefault("jellyfin.sample_failure_limit", 1)

	// Poll defaults
	v.SetDefault("poll.interval_seconds", 5)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid, naming every missing or
// invalid key so a bad deployment fails with a complete list
func validate(cfg *Config) error {
	var problems []string

	if cfg.Qbittorrent.URL == "" {
		problems = append(problems, "qbittorrent.url is required")
	}
	if cfg.Qbittorrent.Username == "" {
		problems = append(problems, "qbittorrent.username is required")
	}
	if cfg.Qbittorrent.Password == "" {
		problems = append(problems, "qbittorrent.password is required")
	}
	if cfg.Qbittorrent.UploadLimit <= 0 {
		problems = append(problems, "qbittorrent.upload_limit must be a positive number of bytes/s")
	}

	if cfg.Jellyfin.URL == "" {
		problems = append(problems, "jellyfin.url is required")
	}
	if cfg.Jellyfin.APIToken == "" {
		problems = append(problems, "jellyfin.api_token is required")
	}
	if cfg.Jellyfin.ActiveWithinSeconds <= 0 {
		problems = append(problems, "jellyfin.active_within_seconds must be positive")
	}
	if cfg.Jellyfin.SampleFailureLimit <= 0 {
		problems = append(problems, "jellyfin.sample_failure_limit must be positive")
	}

	if cfg.Poll.IntervalSeconds <= 0 {
		problems = append(problems, "poll.interval_seconds must be positive")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		problems = append(problems, fmt.Sprintf("invalid logging level: %s", cfg.Logging.Level))
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		problems = append(problems, fmt.Sprintf("invalid logging format: %s", cfg.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return nil
}
