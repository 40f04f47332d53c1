// Package config provides configuration management for the mapgrab CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/mapgrab/mapgrab/internal/constants"
)

// Config holds the client configuration.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\mapgrab\config
//   - Unix: ~/.config/mapgrab/config
//
// INI format:
//
//	[mapgrab]
//	server_url = http://localhost:5000
//	poll_interval_seconds = 2
//	task_refresh_seconds = 5
//	download_dir = /home/user/Downloads
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	no_proxy =
type Config struct {
	// ServerURL is the dashboard backend base URL.
	ServerURL string `ini:"server_url"`

	// PollIntervalSeconds is the per-task status poll period.
	PollIntervalSeconds int `ini:"poll_interval_seconds"`

	// TaskRefreshSeconds is the background active-task list refresh period.
	TaskRefreshSeconds int `ini:"task_refresh_seconds"`

	// DownloadDir is the default directory for result downloads.
	// Empty means the current working directory.
	DownloadDir string `ini:"download_dir"`

	// Proxy settings
	ProxyMode     string `ini:"mode"` // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string `ini:"host"`
	ProxyPort     int    `ini:"port"`
	ProxyUser     string `ini:"user"`
	ProxyPassword string `ini:"password"`
	NoProxy       string `ini:"no_proxy"`
}

// Validation errors
var (
	ErrMissingServerURL   = errors.New("server_url is required")
	ErrInvalidPollPeriod  = errors.New("poll_interval_seconds must be between 1 and 60")
	ErrInvalidTaskRefresh = errors.New("task_refresh_seconds must be between 1 and 300")
)

// DefaultConfigPath returns the default path for the config file.
// - Windows: %USERPROFILE%\.config\mapgrab\config
// - Unix: ~/.config/mapgrab/config
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		configDir = filepath.Join(userProfile, ".config", "mapgrab")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "mapgrab")
	}

	return filepath.Join(configDir, "config"), nil
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		ServerURL:           "http://localhost:5000",
		PollIntervalSeconds: int(constants.TaskPollInterval / time.Second),
		TaskRefreshSeconds:  int(constants.TaskListRefreshInterval / time.Second),
		ProxyMode:           "no-proxy",
	}
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	section := iniFile.Section("mapgrab")
	cfg.ServerURL = section.Key("server_url").MustString(cfg.ServerURL)
	cfg.PollIntervalSeconds = section.Key("poll_interval_seconds").MustInt(cfg.PollIntervalSeconds)
	cfg.TaskRefreshSeconds = section.Key("task_refresh_seconds").MustInt(cfg.TaskRefreshSeconds)
	cfg.DownloadDir = section.Key("download_dir").String()

	proxySection := iniFile.Section("proxy")
	cfg.ProxyMode = proxySection.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxySection.Key("host").String()
	cfg.ProxyPort = proxySection.Key("port").MustInt(0)
	cfg.ProxyUser = proxySection.Key("user").String()
	cfg.ProxyPassword = proxySection.Key("password").String()
	cfg.NoProxy = proxySection.Key("no_proxy").String()

	return cfg, nil
}

// Save saves configuration to an INI file.
// Creates parent directories if they don't exist.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	section, err := iniFile.NewSection("mapgrab")
	if err != nil {
		return fmt.Errorf("failed to create mapgrab section: %w", err)
	}
	section.Key("server_url").SetValue(cfg.ServerURL)
	section.Key("poll_interval_seconds").SetValue(fmt.Sprintf("%d", cfg.PollIntervalSeconds))
	section.Key("task_refresh_seconds").SetValue(fmt.Sprintf("%d", cfg.TaskRefreshSeconds))
	section.Key("download_dir").SetValue(cfg.DownloadDir)

	proxySection, err := iniFile.NewSection("proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxySection.Key("mode").SetValue(cfg.ProxyMode)
	proxySection.Key("host").SetValue(cfg.ProxyHost)
	proxySection.Key("port").SetValue(fmt.Sprintf("%d", cfg.ProxyPort))
	proxySection.Key("user").SetValue(cfg.ProxyUser)
	proxySection.Key("password").SetValue(cfg.ProxyPassword)
	proxySection.Key("no_proxy").SetValue(cfg.NoProxy)

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// MergeWithFlags applies flag and environment overrides.
// Priority: flags > environment > config file > defaults.
func (cfg *Config) MergeWithFlags(serverURL string, pollInterval int) {
	if env := os.Getenv("MAPGRAB_SERVER_URL"); env != "" && serverURL == "" {
		serverURL = env
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if pollInterval > 0 {
		cfg.PollIntervalSeconds = pollInterval
	}
}

// Validate checks if the configuration is usable.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return ErrMissingServerURL
	}
	if cfg.PollIntervalSeconds < 1 || cfg.PollIntervalSeconds > 60 {
		return ErrInvalidPollPeriod
	}
	if cfg.TaskRefreshSeconds < 1 || cfg.TaskRefreshSeconds > 300 {
		return ErrInvalidTaskRefresh
	}
	return nil
}

// PollInterval returns the poll period as a duration.
func (cfg *Config) PollInterval() time.Duration {
	return time.Duration(cfg.PollIntervalSeconds) * time.Second
}

// TaskRefreshInterval returns the task list refresh period as a duration.
func (cfg *Config) TaskRefreshInterval() time.Duration {
	return time.Duration(cfg.TaskRefreshSeconds) * time.Second
}
