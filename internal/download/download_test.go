package download

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mapgrab/mapgrab/internal/api"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		taskID string
		want   string
	}{
		{"4f9d2c81-77f2-40b1-a8ff-93f1a1f0c2de", "maps_scraped_4f9d2c81.csv"},
		{"short", "maps_scraped_short.csv"},
		{"checkpoint", "maps_scraped_checkpoi.csv"},
		{"../../evil", "maps_scraped__.._evil.csv"},
	}

	for _, tt := range tests {
		if got := Filename(tt.taskID); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.taskID, got, tt.want)
		}
	}
}

func newCSVServer(t *testing.T, csv string) *api.Client {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/download_results/") {
			w.WriteHeader(nethttp.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csv))
	}))
	t.Cleanup(server.Close)
	return api.NewClientWithHTTP(server.URL, server.Client())
}

func TestResultsWritesFile(t *testing.T) {
	const csv = "name,rating\nCafe One,4.5\n"
	client := newCSVServer(t, csv)
	dir := t.TempDir()

	path, written, err := Results(context.Background(), client, "4f9d2c81-77f2", Options{Dir: dir})
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}

	if filepath.Base(path) != "maps_scraped_4f9d2c81.csv" {
		t.Errorf("filename = %q", filepath.Base(path))
	}
	if written != int64(len(csv)) {
		t.Errorf("written = %d, want %d", written, len(csv))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != csv {
		t.Errorf("file contents = %q, want %q", string(data), csv)
	}

	// No partial files left behind
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".partial-") {
			t.Errorf("leftover partial file %s", e.Name())
		}
	}
}

func TestResultsRefusesOverwrite(t *testing.T) {
	client := newCSVServer(t, "data\n")
	dir := t.TempDir()

	existing := filepath.Join(dir, "maps_scraped_task-1.csv")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := Results(context.Background(), client, "task-1", Options{Dir: dir})
	if err == nil {
		t.Fatal("Results() error = nil, want already-exists error")
	}

	data, _ := os.ReadFile(existing)
	if string(data) != "old" {
		t.Errorf("existing file was modified: %q", string(data))
	}

	// --force path
	path, _, err := Results(context.Background(), client, "task-1", Options{Dir: dir, Overwrite: true})
	if err != nil {
		t.Fatalf("Results() with Overwrite error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "data\n" {
		t.Errorf("file contents = %q after overwrite", string(data))
	}
}

func TestResultsCustomFilename(t *testing.T) {
	client := newCSVServer(t, "data\n")
	dir := t.TempDir()

	path, _, err := Results(context.Background(), client, "task-1", Options{Dir: dir, Filename: "my results.csv"})
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if filepath.Base(path) != "my results.csv" {
		t.Errorf("filename = %q, want custom name", filepath.Base(path))
	}
}

// TestResultsServerError verifies a backend error response produces an
// error and writes nothing.
func TestResultsServerError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
		w.Write([]byte(`{"error": "Results file not found"}`))
	}))
	defer server.Close()

	client := api.NewClientWithHTTP(server.URL, server.Client())
	dir := t.TempDir()

	_, _, err := Results(context.Background(), client, "gone", Options{Dir: dir})
	if err == nil {
		t.Fatal("Results() error = nil, want error")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("error download left %d files behind", len(entries))
	}
}
