package cli

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mapgrab/mapgrab/internal/api"
	"github.com/mapgrab/mapgrab/internal/controller"
	"github.com/mapgrab/mapgrab/internal/events"
	apphttp "github.com/mapgrab/mapgrab/internal/http"
	"github.com/mapgrab/mapgrab/internal/logging"
	"github.com/mapgrab/mapgrab/internal/notify"
)

// newWatchHarness wires a controller with fast poll intervals to a fake
// backend handler so tests can drive watchTask directly.
func newWatchHarness(t *testing.T, handler nethttp.HandlerFunc) (*controller.Controller, *events.Bus) {
	t.Helper()

	server := httptest.NewServer(handler)
	client := api.NewClientWithHTTP(server.URL, server.Client())

	bus := events.NewBus(64)
	logger := logging.NewLogger(io.Discard)
	notifier := notify.NewNotifier(notify.DefaultConfig(), logger, bus)

	ctrl := controller.New(client, bus, notifier, logger, controller.Config{
		PollInterval: 5 * time.Millisecond,
		Backoff: apphttp.BackoffPolicy{
			Base:        5 * time.Millisecond,
			Max:         20 * time.Millisecond,
			MaxFailures: 3,
		},
	})

	t.Cleanup(func() {
		ctrl.Shutdown()
		bus.Close()
		server.Close()
	})
	return ctrl, bus
}

// TestWatchTaskReportsFailure verifies that watching a task that ends in a
// failed status returns an error on every run. The poll loop signals
// completion right after buffering the terminal event, so without the final
// drain a failed watch could exit clean depending on scheduling.
func TestWatchTaskReportsFailure(t *testing.T) {
	ctrl, bus := newWatchHarness(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/task_status/") {
			fmt.Fprint(w, `{"status": "failed", "error": "browser crashed"}`)
			return
		}
		w.WriteHeader(nethttp.StatusNotFound)
	})

	for i := 0; i < 30; i++ {
		taskID := fmt.Sprintf("task-%d", i)
		ctrl.StartPolling(taskID)

		err := watchTask(context.Background(), ctrl, bus, taskID)
		if err == nil {
			t.Fatalf("iteration %d: watchTask returned nil for a failed task", i)
		}
		if !strings.Contains(err.Error(), "task failed") {
			t.Fatalf("iteration %d: error = %q, want a task failure", i, err)
		}
	}
}

// TestWatchTaskCompletedReturnsNil verifies that a task finishing in the
// completed status exits the watch without an error.
func TestWatchTaskCompletedReturnsNil(t *testing.T) {
	ctrl, bus := newWatchHarness(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/task_status/") {
			fmt.Fprint(w, `{"status": "completed", "progress": 1, "total_results": 12, "results_file": "out.csv"}`)
			return
		}
		w.WriteHeader(nethttp.StatusNotFound)
	})

	ctrl.StartPolling("task-ok")
	if err := watchTask(context.Background(), ctrl, bus, "task-ok"); err != nil {
		t.Fatalf("watchTask() = %v, want nil for a completed task", err)
	}
	if ctrl.IsPolling("task-ok") {
		t.Error("poll loop still registered after the watch ended")
	}
}
