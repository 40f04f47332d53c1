// Package notify surfaces user-visible notifications for job lifecycle
// events. Each terminal task status maps to a distinct level: completed
// is success, failed is danger, stopped is warning, matching the badge
// colors of the original dashboard.
package notify

import (
	"fmt"
	"sync"

	"github.com/mapgrab/mapgrab/internal/events"
	"github.com/mapgrab/mapgrab/internal/logging"
)

// Notification levels.
const (
	LevelSuccess = "success"
	LevelDanger  = "danger"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// Notifier delivers notifications to the log and to the event bus.
type Notifier struct {
	logger  *logging.Logger
	bus     *events.Bus
	enabled bool
	mu      sync.RWMutex
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are delivered at all.
	Enabled bool
}

// DefaultConfig returns the default notification configuration.
func DefaultConfig() *Config {
	return &Config{Enabled: true}
}

// NewNotifier creates a new notifier. The bus may be nil when no
// subscriber renders notifications (plain one-shot commands).
func NewNotifier(cfg *Config, logger *logging.Logger, bus *events.Bus) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Notifier{
		logger:  logger,
		bus:     bus,
		enabled: cfg.Enabled,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Success delivers a success-level notification.
func (n *Notifier) Success(format string, args ...interface{}) {
	n.send(LevelSuccess, fmt.Sprintf(format, args...))
}

// Danger delivers a danger-level notification.
func (n *Notifier) Danger(format string, args ...interface{}) {
	n.send(LevelDanger, fmt.Sprintf(format, args...))
}

// Warning delivers a warning-level notification.
func (n *Notifier) Warning(format string, args ...interface{}) {
	n.send(LevelWarning, fmt.Sprintf(format, args...))
}

// Info delivers an info-level notification.
func (n *Notifier) Info(format string, args ...interface{}) {
	n.send(LevelInfo, fmt.Sprintf(format, args...))
}

func (n *Notifier) send(level, message string) {
	if !n.IsEnabled() {
		return
	}

	if n.logger != nil {
		switch level {
		case LevelDanger:
			n.logger.Error().Str("level", level).Msg(message)
		case LevelWarning:
			n.logger.Warn().Str("level", level).Msg(message)
		default:
			n.logger.Info().Str("level", level).Msg(message)
		}
	}

	if n.bus != nil {
		n.bus.PublishNotification(level, message)
	}
}
