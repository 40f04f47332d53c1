package api

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mapgrab/mapgrab/internal/config"
	"github.com/mapgrab/mapgrab/internal/models"
)

// TestNewClientRejectsEmptyServerURL verifies that NewClient fails with a
// clear error when the server URL is empty, instead of creating a broken
// client that produces "unsupported protocol scheme" errors on every request.
func TestNewClientRejectsEmptyServerURL(t *testing.T) {
	cfg := &config.Config{
		ServerURL: "",
		ProxyMode: "no-proxy",
	}

	_, err := NewClient(cfg)
	if err == nil {
		t.Fatal("NewClient() should return error for empty server URL")
	}
	if !strings.Contains(err.Error(), "server URL is empty") {
		t.Errorf("NewClient() error = %q, want error containing 'server URL is empty'", err.Error())
	}
}

// TestNewClientAcceptsValidServerURL verifies NewClient works with a valid config.
func TestNewClientAcceptsValidServerURL(t *testing.T) {
	cfg := &config.Config{
		ServerURL: "http://localhost:5000",
		ProxyMode: "no-proxy",
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v, want nil", err)
	}
	if client == nil {
		t.Fatal("NewClient() returned nil client")
	}
}

// TestNewClientTrimsTrailingSlash verifies the base URL never keeps a
// trailing slash, so path joining cannot produce double slashes.
func TestNewClientTrimsTrailingSlash(t *testing.T) {
	client := NewClientWithHTTP("http://localhost:5000/", nil)
	if got := client.BaseURL(); got != "http://localhost:5000" {
		t.Errorf("BaseURL() = %q, want %q", got, "http://localhost:5000")
	}
}

func TestStartScraping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    bool
		wantTaskID string
	}{
		{
			name:       "success",
			statusCode: nethttp.StatusOK,
			body:       `{"success": true, "task_id": "abc-123", "message": "Scraping started"}`,
			wantTaskID: "abc-123",
		},
		{
			name:       "logical failure with 200",
			statusCode: nethttp.StatusOK,
			body:       `{"success": false, "error": "another task is already running"}`,
			wantErr:    true,
		},
		{
			name:       "success flag without task id",
			statusCode: nethttp.StatusOK,
			body:       `{"success": true}`,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				if r.Method != nethttp.MethodPost || r.URL.Path != "/api/start_scraping" {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				var jobCfg models.JobConfig
				if err := json.NewDecoder(r.Body).Decode(&jobCfg); err != nil {
					t.Errorf("request body did not decode as job config: %v", err)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClientWithHTTP(server.URL, server.Client())
			resp, err := client.StartScraping(context.Background(), &models.JobConfig{
				TaskType:  models.TaskTypeSearch,
				SearchURL: "https://www.google.com/maps/search/cafes",
			})

			if tt.wantErr {
				if err == nil {
					t.Fatal("StartScraping() error = nil, want error")
				}
				if !IsDefinitive(err) {
					t.Errorf("StartScraping() error %v should be definitive", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("StartScraping() error = %v", err)
			}
			if resp.TaskID != tt.wantTaskID {
				t.Errorf("TaskID = %q, want %q", resp.TaskID, tt.wantTaskID)
			}
		})
	}
}

// TestTaskStatusNotFound verifies a 404 surfaces as a definitive
// task-not-found error rather than a transient transport failure.
func TestTaskStatusNotFound(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
		w.Write([]byte(`{"error": "Task not found"}`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	_, err := client.TaskStatus(context.Background(), "missing-id")
	if err == nil {
		t.Fatal("TaskStatus() error = nil, want error")
	}
	if !IsTaskNotFound(err) {
		t.Errorf("IsTaskNotFound(%v) = false, want true", err)
	}
	if !strings.Contains(err.Error(), "Task not found") {
		t.Errorf("error %q should carry the backend message", err.Error())
	}
}

// TestTaskStatusFillsTaskID verifies that a status body without a task_id
// field still identifies the task it was asked about.
func TestTaskStatusFillsTaskID(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/task_status/task-9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status": "running", "progress": 0.5, "message": "Scrolling results"}`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	status, err := client.TaskStatus(context.Background(), "task-9")
	if err != nil {
		t.Fatalf("TaskStatus() error = %v", err)
	}
	if status.TaskID != "task-9" {
		t.Errorf("TaskID = %q, want %q", status.TaskID, "task-9")
	}
	if status.Progress != 0.5 {
		t.Errorf("Progress = %v, want 0.5", status.Progress)
	}
}

func TestStopTask(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "success", body: `{"success": true}`},
		{name: "logical failure", body: `{"success": false, "error": "task is not running"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				if r.Method != nethttp.MethodPost || r.URL.Path != "/api/stop_task/task-1" {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClientWithHTTP(server.URL, server.Client())
			err := client.StopTask(context.Background(), "task-1")
			if (err != nil) != tt.wantErr {
				t.Errorf("StopTask() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestActiveTasks(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Write([]byte(`{"tasks": [
			{"task_id": "a", "status": "running", "progress": 0.25, "message": "Scraping"},
			{"task_id": "b", "status": "pending", "progress": 0, "message": ""}
		]}`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	tasks, err := client.ActiveTasks(context.Background())
	if err != nil {
		t.Fatalf("ActiveTasks() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].TaskID != "a" || tasks[0].Status != "running" {
		t.Errorf("first task = %+v", tasks[0])
	}
}

func TestGetCheckpoint(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantRows  int
		wantEmpty bool
	}{
		{
			name:     "with data",
			body:     `{"success": true, "total_rows": 250, "data": [{"name": "Cafe One", "rating": "4.5", "reviews": "120", "industry": "Cafe", "status": "scraped"}], "file": "checkpoint.csv"}`,
			wantRows: 250,
		},
		{
			name:      "empty checkpoint",
			body:      `{"success": true, "total_rows": 0, "message": "No checkpoint file found"}`,
			wantRows:  0,
			wantEmpty: true,
		},
		{
			name:    "backend failure",
			body:    `{"success": false, "error": "checkpoint file is corrupt"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClientWithHTTP(server.URL, server.Client())
			summary, err := client.GetCheckpoint(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("GetCheckpoint() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetCheckpoint() error = %v", err)
			}
			if summary.TotalRows != tt.wantRows {
				t.Errorf("TotalRows = %d, want %d", summary.TotalRows, tt.wantRows)
			}
			if summary.Empty() != tt.wantEmpty {
				t.Errorf("Empty() = %v, want %v", summary.Empty(), tt.wantEmpty)
			}
		})
	}
}

func TestDownloadResults(t *testing.T) {
	const csv = "name,rating\nCafe One,4.5\n"

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/download_results/task-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csv))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	body, size, err := client.DownloadResults(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("DownloadResults() error = %v", err)
	}
	defer body.Close()

	if size != int64(len(csv)) {
		t.Errorf("size = %d, want %d", size, len(csv))
	}

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if string(data) != csv {
		t.Errorf("body = %q, want %q", string(data), csv)
	}
}

// TestDownloadResultsMissingTask verifies the download endpoint's error
// body is surfaced instead of being written to disk.
func TestDownloadResultsMissingTask(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
		w.Write([]byte(`{"error": "Results file not found"}`))
	}))
	defer server.Close()

	client := NewClientWithHTTP(server.URL, server.Client())
	_, _, err := client.DownloadResults(context.Background(), "gone")
	if err == nil {
		t.Fatal("DownloadResults() error = nil, want error")
	}
	if !IsDefinitive(err) {
		t.Errorf("error %v should be definitive", err)
	}
}
