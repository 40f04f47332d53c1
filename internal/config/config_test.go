package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mapgrab/mapgrab/internal/constants"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	if cfg.ServerURL != "http://localhost:5000" {
		t.Errorf("ServerURL = %q, want local default", cfg.ServerURL)
	}
	if got := cfg.PollInterval(); got != constants.TaskPollInterval {
		t.Errorf("PollInterval() = %v, want %v", got, constants.TaskPollInterval)
	}
	if got := cfg.TaskRefreshInterval(); got != constants.TaskListRefreshInterval {
		t.Errorf("TaskRefreshInterval() = %v, want %v", got, constants.TaskListRefreshInterval)
	}
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("ProxyMode = %q, want no-proxy", cfg.ProxyMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

// TestLoadMissingFileReturnsDefaults verifies a missing config file is not
// an error: first runs work without any setup.
func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.ServerURL != "http://localhost:5000" {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	orig := &Config{
		ServerURL:           "http://scraper.internal:8080",
		PollIntervalSeconds: 3,
		TaskRefreshSeconds:  10,
		DownloadDir:         "/tmp/results",
		ProxyMode:           "basic",
		ProxyHost:           "proxy.internal",
		ProxyPort:           3128,
		ProxyUser:           "alice",
		ProxyPassword:       "secret",
		NoProxy:             "localhost",
	}

	if err := Save(orig, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if *loaded != *orig {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, orig)
	}

	// Config holds proxy credentials, so it must not be world-readable
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("config file mode = %o, want 0600", perm)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing server url", mutate: func(c *Config) { c.ServerURL = " " }, wantErr: ErrMissingServerURL},
		{name: "poll too small", mutate: func(c *Config) { c.PollIntervalSeconds = 0 }, wantErr: ErrInvalidPollPeriod},
		{name: "poll too large", mutate: func(c *Config) { c.PollIntervalSeconds = 61 }, wantErr: ErrInvalidPollPeriod},
		{name: "refresh too large", mutate: func(c *Config) { c.TaskRefreshSeconds = 301 }, wantErr: ErrInvalidTaskRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeWithFlags(t *testing.T) {
	t.Run("flags override config", func(t *testing.T) {
		cfg := New()
		cfg.MergeWithFlags("http://flag:9000", 7)
		if cfg.ServerURL != "http://flag:9000" {
			t.Errorf("ServerURL = %q, want flag value", cfg.ServerURL)
		}
		if cfg.PollIntervalSeconds != 7 {
			t.Errorf("PollIntervalSeconds = %d, want 7", cfg.PollIntervalSeconds)
		}
	})

	t.Run("environment fills in when flag absent", func(t *testing.T) {
		t.Setenv("MAPGRAB_SERVER_URL", "http://env:9000")
		cfg := New()
		cfg.MergeWithFlags("", 0)
		if cfg.ServerURL != "http://env:9000" {
			t.Errorf("ServerURL = %q, want env value", cfg.ServerURL)
		}
	})

	t.Run("flag beats environment", func(t *testing.T) {
		t.Setenv("MAPGRAB_SERVER_URL", "http://env:9000")
		cfg := New()
		cfg.MergeWithFlags("http://flag:9000", 0)
		if cfg.ServerURL != "http://flag:9000" {
			t.Errorf("ServerURL = %q, want flag value", cfg.ServerURL)
		}
	})
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{PollIntervalSeconds: 2, TaskRefreshSeconds: 5}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("PollInterval() = %v, want 2s", cfg.PollInterval())
	}
	if cfg.TaskRefreshInterval() != 5*time.Second {
		t.Errorf("TaskRefreshInterval() = %v, want 5s", cfg.TaskRefreshInterval())
	}
}
