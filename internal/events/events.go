// Package events provides the event bus that decouples the dashboard
// controller from whatever is rendering it. Poll loops publish task
// events; the CLI watch commands subscribe.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mapgrab/mapgrab/internal/constants"
	"github.com/mapgrab/mapgrab/internal/models"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// EventTaskProgress - progress/message update for a tracked task
	EventTaskProgress EventType = "task_progress"
	// EventTaskTerminal - a task reached completed/failed/stopped
	EventTaskTerminal EventType = "task_terminal"
	// EventTaskError - a poll observed a definitive error for a task
	EventTaskError EventType = "task_error"
	// EventNotification - user-facing notification with a level
	EventNotification EventType = "notification"
	// EventTaskCount - background active-task count refresh
	EventTaskCount EventType = "task_count"
	// EventTaskList - full active-task list refresh
	EventTaskList EventType = "task_list"
	// EventCheckpointRefresh - checkpoint summary should be re-fetched
	EventCheckpointRefresh EventType = "checkpoint_refresh"
	// EventDownloadReady - a completed task's results can be downloaded
	EventDownloadReady EventType = "download_ready"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// TaskProgressEvent carries a progress update for one task.
type TaskProgressEvent struct {
	BaseEvent
	TaskID   string
	Status   string
	Progress float64 // 0.0 to 1.0
	Message  string
}

// TaskTerminalEvent marks a task's end of life.
type TaskTerminalEvent struct {
	BaseEvent
	TaskID       string
	Status       string
	Message      string
	TotalResults int
}

// TaskErrorEvent marks a definitive error observed while polling.
type TaskErrorEvent struct {
	BaseEvent
	TaskID  string
	Message string
}

// NotificationEvent is a user-facing notification.
type NotificationEvent struct {
	BaseEvent
	Level   string // "success", "danger", "warning", "info"
	Message string
}

// TaskCountEvent carries the background task-count refresh.
type TaskCountEvent struct {
	BaseEvent
	Count int
}

// TaskListEvent carries a full active-task list refresh.
type TaskListEvent struct {
	BaseEvent
	Tasks []models.TaskInfo
}

// CheckpointRefreshEvent signals that checkpoint data changed server-side.
type CheckpointRefreshEvent struct {
	BaseEvent
	TaskID string
}

// DownloadReadyEvent signals that a task's results are downloadable.
type DownloadReadyEvent struct {
	BaseEvent
	TaskID string
}

// Bus manages event subscriptions and publishing
type Bus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewBus creates a new event bus with the given channel buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (b *Bus) Subscribe(eventType EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (b *Bus) SubscribeAll() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.all = append(b.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Non-blocking: a full
// subscriber channel drops the event rather than stalling a poll loop.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}

	for _, ch := range b.all {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for _, channels := range b.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
}

// Unsubscribe removes a subscription channel from a specific event type
func (b *Bus) Unsubscribe(eventType EventType, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	subscribers := b.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			b.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from every event type
// and from the all-events list.
func (b *Bus) UnsubscribeAll(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for eventType, subscribers := range b.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				b.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range b.all {
		if subCh == ch {
			b.all[i] = b.all[len(b.all)-1]
			b.all = b.all[:len(b.all)-1]
			break
		}
	}
}

// DroppedEventCount returns the number of events dropped due to full buffers.
func (b *Bus) DroppedEventCount() int64 {
	return b.droppedEvents.Load()
}

// PublishTaskProgress is a convenience method for progress updates.
func (b *Bus) PublishTaskProgress(taskID, status string, progress float64, message string) {
	b.Publish(&TaskProgressEvent{
		BaseEvent: BaseEvent{EventType: EventTaskProgress, Time: time.Now()},
		TaskID:    taskID,
		Status:    status,
		Progress:  progress,
		Message:   message,
	})
}

// PublishNotification is a convenience method for notifications.
func (b *Bus) PublishNotification(level, message string) {
	b.Publish(&NotificationEvent{
		BaseEvent: BaseEvent{EventType: EventNotification, Time: time.Now()},
		Level:     level,
		Message:   message,
	})
}
