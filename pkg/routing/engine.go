package routing

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dispatchlab/notifykit/pkg/logger"
	"github.com/dispatchlab/notifykit/pkg/notification"
)

// Engine evaluates routing decisions. It holds no mutable state and is safe
// for concurrent use; construct one at process start and share it.
type Engine struct {
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for decision tracing at debug level.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a routing engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Route produces a delivery plan for the notification under the recipient's
// preferences at the given instant. It never fails for business conditions;
// those are encoded in the Decision. Structurally invalid input should be
// caught with Validate before calling Route; Route itself tolerates it by
// producing an empty-channel decision.
func (e *Engine) Route(notif notification.Notification, prefs notification.RecipientPreferences, now time.Time) Decision {
	d := e.route(notif, prefs, now)

	e.logger.Debug("routing decision",
		logger.NotificationID(notif.ID),
		logger.UserID(notif.UserID),
		logger.Category(notif.Category),
		slog.Bool("should_deliver", d.ShouldDeliver),
		slog.String("reason", d.Reason),
		slog.Int("channels", len(d.Channels)),
	)

	return d
}

func (e *Engine) route(notif notification.Notification, prefs notification.RecipientPreferences, now time.Time) Decision {
	if !prefs.GlobalEnabled {
		return skip(ReasonGlobalDisabled)
	}

	if !prefs.CategoryEnabled(notif.Category) {
		return skip(fmt.Sprintf("Category %s disabled", notif.Category))
	}

	if notif.IsExpired(now) {
		return skip(ReasonExpired)
	}

	if notif.ScheduledAt != nil && now.Before(*notif.ScheduledAt) {
		return postpone(ReasonScheduled, *notif.ScheduledAt)
	}

	if prefs.QuietHours != nil {
		active, err := quietHoursActive(*prefs.QuietHours, now)
		if err != nil {
			// Preferences bypassed validation; fail closed rather than wake
			// the recipient at an unknown local time.
			return skip(fmt.Sprintf("Quiet hours misconfigured: %v", err))
		}
		if active {
			if notif.Priority == notification.PriorityUrgent {
				inApp := channelsOfType(notif.EnabledChannels(), notification.ChannelInApp)
				if len(inApp) == 0 {
					return skip(ReasonQuietHoursNoInApp)
				}
				return deliver(inApp)
			}

			end, err := quietHoursEnd(*prefs.QuietHours, now)
			if err != nil {
				return skip(fmt.Sprintf("Quiet hours misconfigured: %v", err))
			}
			return postpone(ReasonQuietHours, end)
		}
	}

	allowed := prefs.ChannelsForCategory(notif.Category)
	matched := make([]notification.ChannelDescriptor, 0, len(allowed))
	for _, ch := range notif.EnabledChannels() {
		if slices.Contains(allowed, ch.Type()) {
			matched = append(matched, ch)
		}
	}
	if len(matched) == 0 {
		return skip(ReasonNoMatchingChannels)
	}

	return deliver(matched)
}

// Validate is the misconfiguration entry point: it rejects structurally
// broken input that Route would otherwise silently route to nothing.
// Business non-delivery conditions are deliberately not errors here.
func (e *Engine) Validate(notif *notification.Notification, prefs *notification.RecipientPreferences) error {
	if notif == nil {
		return ErrNilNotification
	}
	if prefs == nil {
		return ErrNilPreferences
	}
	if len(notif.Channels) == 0 {
		return ErrNoChannels
	}

	// A category whose allow-list shares no channel type with the notification
	// is a misconfiguration: no preference change short of editing the category
	// could ever make this notification deliverable.
	allowed := prefs.ChannelsForCategory(notif.Category)
	for _, ch := range notif.Channels {
		if slices.Contains(allowed, ch.Type()) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoCategoryChannel, notif.Category)
}

func channelsOfType(channels []notification.ChannelDescriptor, typ notification.ChannelType) []notification.ChannelDescriptor {
	out := make([]notification.ChannelDescriptor, 0, len(channels))
	for _, ch := range channels {
		if ch.Type() == typ {
			out = append(out, ch)
		}
	}
	return out
}
