package controller

import (
	"context"
	"time"

	"github.com/mapgrab/mapgrab/internal/events"
	"github.com/mapgrab/mapgrab/internal/models"
)

// Checkpoint fetches the current checkpoint summary from the backend.
func (c *Controller) Checkpoint(ctx context.Context) (*models.CheckpointSummary, error) {
	return c.client.GetCheckpoint(ctx)
}

// ClearCheckpoint deletes the server-side checkpoint and re-fetches the
// summary once so callers can render the resulting empty state. Exactly one
// clear request and one follow-up fetch go out per call.
func (c *Controller) ClearCheckpoint(ctx context.Context) (*models.CheckpointSummary, error) {
	if err := c.client.ClearCheckpoint(ctx); err != nil {
		c.notifier.Danger("Failed to clear checkpoint: %v", err)
		return nil, err
	}

	c.notifier.Success("Checkpoint cleared")
	c.bus.Publish(&events.CheckpointRefreshEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventCheckpointRefresh, Time: time.Now()},
	})

	summary, err := c.client.GetCheckpoint(ctx)
	if err != nil {
		// The clear itself succeeded; surface the follow-up fetch
		// failure without undoing that fact.
		c.logger.Warn().Err(err).Msg("checkpoint re-fetch after clear failed")
		return nil, err
	}
	return summary, nil
}
