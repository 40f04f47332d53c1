package controller

import (
	"context"
	"time"

	"github.com/mapgrab/mapgrab/internal/events"
	"github.com/mapgrab/mapgrab/internal/models"
)

// ActiveTasks fetches the backend's view of currently active tasks.
func (c *Controller) ActiveTasks(ctx context.Context) ([]models.TaskInfo, error) {
	return c.client.ActiveTasks(ctx)
}

// RunTaskMonitor periodically refreshes the active-task list and publishes
// the count and ids on the event bus. It blocks until the context ends.
// Fetch failures are logged and the previous count stands until the next
// successful refresh.
func (c *Controller) RunTaskMonitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tasks, err := c.client.ActiveTasks(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Msg("active task refresh failed")
		} else {
			now := time.Now()
			c.bus.Publish(&events.TaskCountEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventTaskCount, Time: now},
				Count:     len(tasks),
			})
			c.bus.Publish(&events.TaskListEvent{
				BaseEvent: events.BaseEvent{EventType: events.EventTaskList, Time: now},
				Tasks:     tasks,
			})
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
