package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Qbittorrent: QbittorrentConfig{
			URL:         "http://localhost:8080",
			Username:    "admin",
			Password:    "adminadmin",
			UploadLimit: 1000,
		},
		Jellyfin: JellyfinConfig{
			URL:                 "http://localhost:8096",
			APIToken:            "token",
			ActiveWithinSeconds: 5,
			SampleFailureLimit:  1,
		},
		Poll: PollConfig{IntervalSeconds: 5},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing qbittorrent url",
			mutate:  func(c *Config) { c.Qbittorrent.URL = "" },
			wantErr: "qbittorrent.url is required",
		},
		{
			name:    "missing qbittorrent username",
			mutate:  func(c *Config) { c.Qbittorrent.Username = "" },
			wantErr: "qbittorrent.username is required",
		},
		{
			name:    "missing qbittorrent password",
			mutate:  func(c *Config) { c.Qbittorrent.Password = "" },
			wantErr: "qbittorrent.password is required",
		},
		{
			name:    "zero upload limit",
			mutate:  func(c *Config) { c.Qbittorrent.UploadLimit = 0 },
			wantErr: "qbittorrent.upload_limit must be a positive number",
		},
		{
			name:    "missing jellyfin url",
			mutate:  func(c *Config) { c.Jellyfin.URL = "" },
			wantErr: "jellyfin.url is required",
		},
		{
			name:    "missing jellyfin token",
			mutate:  func(c *Config) { c.Jellyfin.APIToken = "" },
			wantErr: "jellyfin.api_token is required",
		},
		{
			name:    "zero active window",
			mutate:  func(c *Config) { c.Jellyfin.ActiveWithinSeconds = 0 },
			wantErr: "jellyfin.active_within_seconds must be positive",
		},
		{
			name:    "zero sample failure limit",
			mutate:  func(c *Config) { c.Jellyfin.SampleFailureLimit = 0 },
			wantErr: "jellyfin.sample_failure_limit must be positive",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Poll.IntervalSeconds = 0 },
			wantErr: "poll.interval_seconds must be positive",
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid logging level: verbose",
		},
		{
			name:    "invalid logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format: xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateListsEveryMissingKey(t *testing.T) {
	cfg := validConfig()
	cfg.Qbittorrent.URL = ""
	cfg.Qbittorrent.Password = ""
	cfg.Jellyfin.APIToken = ""

	err := validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qbittorrent.url is required")
	assert.Contains(t, err.Error(), "qbittorrent.password is required")
	assert.Contains(t, err.Error(), "jellyfin.api_token is required")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
qbittorrent:
  url: http://localhost:8080
  username: admin
  password: adminadmin
jellyfin:
  url: http://localhost:8096
  api_token: abc123
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "admin", cfg.Qbittorrent.Username)
	assert.Equal(t, "abc123", cfg.Jellyfin.APIToken)

	// Defaults fill everything the file left out.
	assert.Equal(t, int64(1000), cfg.Qbittorrent.UploadLimit)
	assert.Equal(t, 5, cfg.Jellyfin.ActiveWithinSeconds)
	assert.Equal(t, 1, cfg.Jellyfin.SampleFailureLimit)
	assert.Equal(t, 5, cfg.Poll.IntervalSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingRequiredKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
qbittorrent:
  url: http://localhost:8080
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qbittorrent.username is required")
	assert.Contains(t, err.Error(), "jellyfin.url is required")
}

func TestPollInterval(t *testing.T) {
	p := PollConfig{IntervalSeconds: 5}
	assert.Equal(t, "5s", p.Interval().String())
}
