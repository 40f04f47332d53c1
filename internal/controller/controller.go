// Package controller owns the client-side lifecycle of scrape tasks: it
// starts jobs, runs one poll loop per task, reacts to terminal states,
// and fans task activity out on the event bus.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/mapgrab/mapgrab/internal/api"
	"github.com/mapgrab/mapgrab/internal/constants"
	"github.com/mapgrab/mapgrab/internal/events"
	apphttp "github.com/mapgrab/mapgrab/internal/http"
	"github.com/mapgrab/mapgrab/internal/logging"
	"github.com/mapgrab/mapgrab/internal/models"
	"github.com/mapgrab/mapgrab/internal/notify"
)

// Config holds controller tuning knobs.
type Config struct {
	// PollInterval is the steady-state delay between status polls.
	PollInterval time.Duration
	// Backoff governs the poll loop while the backend is unreachable.
	Backoff apphttp.BackoffPolicy
}

// DefaultConfig returns the standard polling configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: constants.TaskPollInterval,
		Backoff: apphttp.BackoffPolicy{
			Base:        constants.TaskPollInterval,
			Max:         constants.PollBackoffMax,
			MaxFailures: constants.MaxConsecutivePollFailures,
		},
	}
}

type poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Controller tracks scrape tasks and their poll loops. All map access is
// guarded by mu; poll loops run in their own goroutines.
type Controller struct {
	client   *api.Client
	bus      *events.Bus
	notifier *notify.Notifier
	logger   *logging.Logger
	cfg      Config

	mu      sync.Mutex
	tasks   map[string]*models.TaskStatus
	pollers map[string]*poller
}

// New creates a Controller around an API client.
func New(client *api.Client, bus *events.Bus, notifier *notify.Notifier, logger *logging.Logger, cfg Config) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = constants.TaskPollInterval
	}
	if cfg.Backoff.Base <= 0 {
		cfg.Backoff = DefaultConfig().Backoff
	}
	return &Controller{
		client:   client,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		tasks:    make(map[string]*models.TaskStatus),
		pollers:  make(map[string]*poller),
	}
}

// StartJob submits a scrape job and begins polling it. The returned task id
// identifies the job on the backend. Progress state for the UI is reset
// before the request goes out so a rejected submission never shows stale
// progress from a previous run.
func (c *Controller) StartJob(ctx context.Context, jobCfg *models.JobConfig) (string, error) {
	jobCfg.ApplyDefaults()
	if err := jobCfg.Validate(); err != nil {
		return "", err
	}

	c.bus.PublishTaskProgress("", models.StatusPending, 0, "Initializing...")

	resp, err := c.client.StartScraping(ctx, jobCfg)
	if err != nil {
		c.notifier.Danger("Failed to start scraping: %v", err)
		return "", err
	}

	c.mu.Lock()
	c.tasks[resp.TaskID] = &models.TaskStatus{
		TaskID:   resp.TaskID,
		Status:   models.StatusPending,
		Progress: 0,
		Message:  resp.Message,
	}
	c.mu.Unlock()

	c.notifier.Success("Scraping started (task %s)", shortID(resp.TaskID))
	c.StartPolling(resp.TaskID)
	return resp.TaskID, nil
}

// StartPolling launches the poll loop for taskID. At most one loop runs
// per task id: registering again while a loop is alive cancels the old
// loop and waits for it to exit before the new one starts. Returns
// false when an existing loop was replaced.
func (c *Controller) StartPolling(taskID string) bool {
	fresh := true
	for {
		c.mu.Lock()
		existing, exists := c.pollers[taskID]
		if !exists {
			ctx, cancel := context.WithCancel(context.Background())
			p := &poller{cancel: cancel, done: make(chan struct{})}
			c.pollers[taskID] = p
			c.mu.Unlock()
			go c.pollLoop(ctx, taskID, p)
			return fresh
		}
		c.mu.Unlock()

		fresh = false
		existing.cancel()
		<-existing.done
	}
}

// pollLoop polls one task until it reaches a terminal status, hits a
// definitive error, or exhausts the transient-failure budget.
func (c *Controller) pollLoop(ctx context.Context, taskID string, p *poller) {
	defer close(p.done)

	failures := 0
	delay := c.cfg.PollInterval

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.removeTask(taskID)
			return
		case <-timer.C:
		}

		status, err := c.client.TaskStatus(ctx, taskID)
		switch {
		case err != nil && api.IsDefinitive(err):
			// The backend answered and the task is gone or the request
			// was rejected. Polling further cannot change that.
			c.logger.Warn().Str("task_id", taskID).Err(err).Msg("task poll got definitive error, stopping")
			c.removeTask(taskID)
			c.bus.Publish(&events.TaskErrorEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventTaskError, Time: time.Now()},
				TaskID:    taskID,
				Message:   err.Error(),
			})
			if api.IsTaskNotFound(err) {
				c.notifier.Warning("Task %s no longer exists on the server", shortID(taskID))
			} else {
				c.notifier.Danger("Polling task %s failed: %v", shortID(taskID), err)
			}
			return

		case err != nil:
			if ctx.Err() != nil {
				c.removeTask(taskID)
				return
			}
			failures++
			if c.cfg.Backoff.Exhausted(failures) {
				c.logger.Error().Str("task_id", taskID).Int("failures", failures).Err(err).
					Msg("poll failure budget exhausted, abandoning task")
				c.failLocally(taskID, "Lost contact with the server")
				return
			}
			delay = c.cfg.Backoff.Delay(failures)
			c.logger.Warn().Str("task_id", taskID).Int("failures", failures).
				Dur("retry_in", delay).Err(err).Msg("task poll failed, will retry")

		default:
			failures = 0
			delay = c.cfg.PollInterval

			c.mu.Lock()
			c.tasks[taskID] = status
			c.mu.Unlock()

			c.bus.PublishTaskProgress(taskID, status.Status, status.Progress, status.Message)

			if status.Terminal() {
				c.finishTask(taskID, status)
				return
			}
		}

		timer.Reset(delay)
	}
}

// finishTask handles a task that reached a terminal status: it announces
// the outcome, signals downstream refreshes, and drops the task from
// tracking.
func (c *Controller) finishTask(taskID string, status *models.TaskStatus) {
	c.bus.Publish(&events.TaskTerminalEvent{
		BaseEvent:    events.BaseEvent{EventType: events.EventTaskTerminal, Time: time.Now()},
		TaskID:       taskID,
		Status:       status.Status,
		Message:      status.Message,
		TotalResults: status.TotalResults,
	})

	switch status.Status {
	case models.StatusCompleted:
		c.notifier.Success("Scraping completed: %d results", status.TotalResults)
		c.bus.Publish(&events.CheckpointRefreshEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventCheckpointRefresh, Time: time.Now()},
			TaskID:    taskID,
		})
		if status.ResultsFile != "" || status.TotalResults > 0 {
			c.bus.Publish(&events.DownloadReadyEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventDownloadReady, Time: time.Now()},
				TaskID:    taskID,
			})
		}
	case models.StatusStopped:
		c.notifier.Warning("Scraping stopped: %s", nonEmpty(status.Message, "stopped by user"))
	case models.StatusFailed:
		c.notifier.Danger("Scraping failed: %s", nonEmpty(status.Error, status.Message, "unknown error"))
	}

	c.removeTask(taskID)
}

// failLocally marks a task failed on the client side after the poll budget
// runs out, without any backend confirmation.
func (c *Controller) failLocally(taskID, message string) {
	c.bus.Publish(&events.TaskErrorEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventTaskError, Time: time.Now()},
		TaskID:    taskID,
		Message:   message,
	})
	c.notifier.Danger("Task %s: %s", shortID(taskID), message)
	c.removeTask(taskID)
}

// removeTask drops a task from both tracking maps. Safe to call more than
// once for the same id.
func (c *Controller) removeTask(taskID string) {
	c.mu.Lock()
	delete(c.tasks, taskID)
	delete(c.pollers, taskID)
	c.mu.Unlock()
}

// StopTask asks the backend to stop a running task. The poll loop is left
// alive on purpose: it observes the resulting "stopped" status on its next
// poll and shuts itself down through the normal terminal path.
func (c *Controller) StopTask(ctx context.Context, taskID string) error {
	if err := c.client.StopTask(ctx, taskID); err != nil {
		c.notifier.Danger("Failed to stop task %s: %v", shortID(taskID), err)
		return err
	}
	c.notifier.Info("Stop requested for task %s", shortID(taskID))
	return nil
}

// Status returns the last polled status for a tracked task, or nil when the
// task is not tracked.
func (c *Controller) Status(taskID string) *models.TaskStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.tasks[taskID]
	if !ok {
		return nil
	}
	copied := *st
	return &copied
}

// TrackedTasks returns the ids of all tasks with a live poll loop.
func (c *Controller) TrackedTasks() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.pollers))
	for id := range c.pollers {
		ids = append(ids, id)
	}
	return ids
}

// IsPolling reports whether a poll loop is live for taskID.
func (c *Controller) IsPolling(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pollers[taskID]
	return ok
}

// WaitForTask blocks until the poll loop for taskID exits or the context
// ends. A task with no live loop returns immediately.
func (c *Controller) WaitForTask(ctx context.Context, taskID string) error {
	c.mu.Lock()
	p, ok := c.pollers[taskID]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels every live poll loop and waits for them to exit.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	active := make([]*poller, 0, len(c.pollers))
	for _, p := range c.pollers {
		p.cancel()
		active = append(active, p)
	}
	c.mu.Unlock()

	for _, p := range active {
		<-p.done
	}
}

func shortID(id string) string {
	if len(id) > constants.DownloadIDPrefixLen {
		return id[:constants.DownloadIDPrefixLen]
	}
	return id
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
