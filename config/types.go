package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Qbittorrent QbittorrentConfig `mapstructure:"qbittorrent"`
	Jellyfin    JellyfinConfig    `mapstructure:"jellyfin"`
	Poll        PollConfig        `mapstructure:"poll"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// QbittorrentConfig holds qBittorrent WebUI connection details and the
// upload cap applied while streaming is active
type QbittorrentConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// UploadLimit is the upload ceiling in bytes/s applied while any
	// playback session is active. 0 means unlimited, so the cap must be
	// positive.
	UploadLimit int64 `mapstructure:"upload_limit"`
}

// JellyfinConfig holds media server connection details and sampling behavior
type JellyfinConfig struct {
	URL      string `mapstructure:"url"`
	APIToken string `mapstructure:"api_token"`
	// ActiveWithinSeconds is the trailing window a playback session must
	// have been active within to count.
	ActiveWithinSeconds int `mapstructure:"active_within_seconds"`
	// SampleFailureLimit is the number of consecutive sampling failures
	// tolerated before the loop gives up. 1 means the first failure is
	// fatal.
	SampleFailureLimit int `mapstructure:"sample_failure_limit"`
}

// PollConfig contains the control loop timing
type PollConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// Interval returns the poll interval as a duration
func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalSeconds) * time.Second
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
