// Package models defines data structures shared between the API client
// and the dashboard controller.
package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mapgrab/mapgrab/internal/constants"
)

// Task types accepted by the backend.
const (
	TaskTypePOI    = "poi"
	TaskTypeSearch = "search"
)

// Task statuses reported by the backend.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusStopped   = "stopped"
)

// IsTerminalStatus reports whether a status ends a task's lifecycle.
// Completed, failed and stopped all stop polling; anything else keeps
// the poll loop alive.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusStopped:
		return true
	}
	return false
}

// JobConfig is the scrape job configuration sent to /api/start_scraping.
// The discriminator is TaskType: "poi" jobs carry Location/Keywords,
// "search" jobs carry SearchURL. Built fresh for each start action and
// never persisted.
type JobConfig struct {
	TaskType string `json:"task_type"`

	// POI jobs
	Location string   `json:"location,omitempty"`
	Keywords []string `json:"poi_keywords,omitempty"`
	RadiusKM float64  `json:"radius_km,omitempty"`

	// Search jobs
	SearchURL string `json:"search_url,omitempty"`

	// Common knobs
	MaxResults  int     `json:"max_results"`
	ScrollDelay float64 `json:"scroll_delay"`
	Mode        string  `json:"mode"`
}

// Validate checks the configuration for the basic shape the backend
// expects before any request is issued.
func (c *JobConfig) Validate() error {
	switch c.TaskType {
	case TaskTypePOI:
		if c.Location == "" {
			return fmt.Errorf("poi job requires a location")
		}
	case TaskTypeSearch:
		if c.SearchURL == "" {
			return fmt.Errorf("search job requires a search URL or query")
		}
	default:
		return fmt.Errorf("unknown task type: %q", c.TaskType)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.MaxResults)
	}
	if c.ScrollDelay < 0 {
		return fmt.Errorf("scroll_delay must not be negative, got %g", c.ScrollDelay)
	}
	return nil
}

// ApplyDefaults fills the common knobs the dashboard form pre-populates.
func (c *JobConfig) ApplyDefaults() {
	if c.MaxResults == 0 {
		c.MaxResults = constants.DefaultMaxResults
	}
	if c.ScrollDelay == 0 {
		c.ScrollDelay = constants.DefaultScrollDelay
	}
	if c.Mode == "" {
		c.Mode = constants.DefaultScrapeMode
	}
}

// BuildSearchURL turns a plain query into the Google Maps search URL
// the backend scrapes, mirroring the server's own URL building.
func BuildSearchURL(query string) string {
	encoded := url.QueryEscape(strings.TrimSpace(query))
	return "https://www.google.com/maps/search/" + encoded
}

// StartResponse is the body returned by /api/start_scraping.
type StartResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TaskStatus is the body returned by /api/task_status/{id}.
type TaskStatus struct {
	TaskID       string  `json:"task_id"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	Message      string  `json:"message"`
	StartedAt    string  `json:"started_at,omitempty"`
	TotalResults int     `json:"total_results"`
	ResultsFile  string  `json:"results_file,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Terminal reports whether the status ends the task's lifecycle.
func (s *TaskStatus) Terminal() bool {
	return IsTerminalStatus(s.Status)
}

// TaskInfo is one row of /api/active_tasks.
type TaskInfo struct {
	TaskID       string  `json:"task_id"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	Message      string  `json:"message"`
	StartedAt    string  `json:"started_at,omitempty"`
	TotalResults int     `json:"total_results"`
}

// ActiveTasksResponse is the body returned by /api/active_tasks.
type ActiveTasksResponse struct {
	Tasks []TaskInfo `json:"tasks"`
}

// SimpleResponse is the body returned by stop_task and clear_checkpoint.
type SimpleResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
