package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
	"github.com/dispatchlab/notifykit/pkg/logger"
	"github.com/dispatchlab/notifykit/pkg/notification"
	"github.com/dispatchlab/notifykit/pkg/routing"
)

// Receipt is the outcome of sending one notification.
type Receipt struct {
	Notification notification.Notification `json:"notification"`
	Delivered    bool                      `json:"delivered"`
	Reason       string                    `json:"reason,omitempty"`
	DelayedUntil *time.Time                `json:"delayed_until,omitempty"`
	Results      []dispatch.Result         `json:"results,omitempty"`
}

// Manager orchestrates notification persistence, routing, and delivery.
type Manager struct {
	store      NotificationStore
	prefs      PreferencesStore
	engine     *routing.Engine
	dispatcher *dispatch.Dispatcher
	clock      notification.Clock
	logger     *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPreferencesStore sets the preferences backend. Without one, every
// user gets default preferences.
func WithPreferencesStore(ps PreferencesStore) ManagerOption {
	return func(m *Manager) {
		if ps != nil {
			m.prefs = ps
		}
	}
}

// WithEngine overrides the routing engine.
func WithEngine(e *routing.Engine) ManagerOption {
	return func(m *Manager) {
		if e != nil {
			m.engine = e
		}
	}
}

// WithDispatcher overrides the delivery dispatcher.
func WithDispatcher(d *dispatch.Dispatcher) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.dispatcher = d
		}
	}
}

// WithClock overrides the clock used for routing and state transitions.
func WithClock(c notification.Clock) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a notification manager. The store is required; engine
// and dispatcher default to fresh instances, which means deliveries fail
// until transports are registered on a dispatcher passed via WithDispatcher.
func NewManager(store NotificationStore, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	m := &Manager{
		store:  store,
		engine: routing.NewEngine(),
		clock:  notification.SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dispatcher == nil {
		m.dispatcher = dispatch.New(nil)
	}
	return m, nil
}

// Store returns the underlying notification store.
func (m *Manager) Store() NotificationStore { return m.store }

// Dispatcher returns the underlying dispatcher.
func (m *Manager) Dispatcher() *dispatch.Dispatcher { return m.dispatcher }

// Send persists the notification and attempts delivery according to the
// recipient's preferences. The notification is stored before any delivery,
// so a transport failure never loses it. Routing skips and postponements
// are not errors; the receipt carries the reason.
func (m *Manager) Send(ctx context.Context, notif notification.Notification) (Receipt, error) {
	if notif.ID == "" {
		notif.ID = uuid.New().String()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = m.clock.Now()
	}

	if err := m.store.Create(ctx, notif); err != nil {
		return Receipt{}, fmt.Errorf("failed to store notification: %w", err)
	}

	return m.deliver(ctx, notif)
}

// SendToUsers fans a template notification out to multiple recipients,
// routing each copy against that user's own preferences. Storage failures
// abort; delivery failures do not.
func (m *Manager) SendToUsers(ctx context.Context, userIDs []string, template notification.Notification) ([]Receipt, error) {
	if len(userIDs) == 0 {
		return nil, ErrNoRecipients
	}

	receipts := make([]Receipt, 0, len(userIDs))
	for _, userID := range userIDs {
		notif := template
		notif.ID = uuid.New().String()
		notif.UserID = userID
		notif.CreatedAt = m.clock.Now()

		if err := m.store.Create(ctx, notif); err != nil {
			return receipts, fmt.Errorf("failed to store notification for user %s: %w", userID, err)
		}

		receipt, err := m.deliver(ctx, notif)
		if err != nil {
			return receipts, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// deliver routes an already-persisted notification and dispatches the plan.
func (m *Manager) deliver(ctx context.Context, notif notification.Notification) (Receipt, error) {
	prefs := m.preferencesFor(ctx, notif.UserID)
	now := m.clock.Now()

	decision := m.engine.Route(notif, prefs, now)
	if !decision.ShouldDeliver {
		if decision.DelayUntil != nil {
			notif.ScheduledAt = decision.DelayUntil
			notif.Status = notification.StatusScheduled
			if err := m.store.Update(ctx, notif); err != nil {
				return Receipt{}, fmt.Errorf("failed to reschedule notification: %w", err)
			}
			return Receipt{Notification: notif, Reason: decision.Reason, DelayedUntil: decision.DelayUntil}, nil
		}

		m.logger.LogAttrs(ctx, slog.LevelDebug, "Notification skipped by routing",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			slog.String("reason", decision.Reason),
		)
		return Receipt{Notification: notif, Reason: decision.Reason}, nil
	}

	results := m.dispatcher.DeliverToChannels(ctx, notif, decision.Channels)

	delivered := false
	for _, r := range results {
		if r.Success {
			delivered = true
			break
		}
	}

	if delivered {
		notif.Status = notification.StatusSent
	} else {
		_ = notif.MarkFailed(m.clock.Now())
		m.logger.LogAttrs(ctx, slog.LevelWarn, "Notification failed on all channels",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			slog.Int("channels", len(results)),
		)
	}

	if err := m.store.Update(ctx, notif); err != nil {
		return Receipt{}, fmt.Errorf("failed to update notification status: %w", err)
	}
	return Receipt{Notification: notif, Delivered: delivered, Results: results}, nil
}

// ProcessScheduled re-routes notifications whose scheduled time has
// arrived. It is meant to run periodically from a scheduler loop. Each due
// notification is routed again, so quiet hours or preference changes since
// scheduling still apply.
func (m *Manager) ProcessScheduled(ctx context.Context) ([]Receipt, error) {
	due, err := m.store.ListDue(ctx, m.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list due notifications: %w", err)
	}

	receipts := make([]Receipt, 0, len(due))
	for _, notif := range due {
		// Clear the schedule so routing does not postpone it again.
		notif.ScheduledAt = nil
		notif.Status = notification.StatusPending

		receipt, err := m.deliver(ctx, notif)
		if err != nil {
			return receipts, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// Get retrieves one of a user's notifications.
func (m *Manager) Get(ctx context.Context, userID, notifID string) (notification.Notification, error) {
	return m.store.Get(ctx, userID, notifID)
}

// List returns a user's notifications, newest first.
func (m *Manager) List(ctx context.Context, userID string, opts ListOptions) ([]notification.Notification, error) {
	return m.store.List(ctx, userID, opts)
}

// MarkRead marks the given notifications as read. Unknown IDs are ignored;
// notifications in a terminal state return ErrTerminalState.
func (m *Manager) MarkRead(ctx context.Context, userID string, notifIDs ...string) error {
	now := m.clock.Now()
	for _, id := range notifIDs {
		notif, err := m.store.Get(ctx, userID, id)
		if err != nil {
			continue
		}
		if err := notif.MarkRead(now); err != nil {
			return fmt.Errorf("notification %s: %w", id, err)
		}
		if err := m.store.Update(ctx, notif); err != nil {
			return err
		}
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (m *Manager) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := m.store.List(ctx, userID, ListOptions{OnlyUnread: true})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(unread))
	for _, n := range unread {
		// Failed notifications stay unread; reading them is illegal.
		if n.FailedAt == nil {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return m.MarkRead(ctx, userID, ids...)
}

// Archive removes a notification from the user's active feed.
func (m *Manager) Archive(ctx context.Context, userID, notifID string) error {
	notif, err := m.store.Get(ctx, userID, notifID)
	if err != nil {
		return err
	}
	if err := notif.Archive(m.clock.Now()); err != nil {
		return err
	}
	return m.store.Update(ctx, notif)
}

// Delete removes notification(s) permanently.
func (m *Manager) Delete(ctx context.Context, userID string, notifIDs ...string) error {
	return m.store.Delete(ctx, userID, notifIDs...)
}

// CountUnread returns the user's unread notification count.
func (m *Manager) CountUnread(ctx context.Context, userID string) (int, error) {
	return m.store.CountUnread(ctx, userID)
}

// Preferences returns the user's delivery preferences, falling back to
// defaults for users who never saved any.
func (m *Manager) Preferences(ctx context.Context, userID string) notification.RecipientPreferences {
	return m.preferencesFor(ctx, userID)
}

// SavePreferences persists the user's preferences.
func (m *Manager) SavePreferences(ctx context.Context, prefs notification.RecipientPreferences) error {
	if m.prefs == nil {
		return ErrNoPreferencesStore
	}
	return m.prefs.Put(ctx, prefs)
}

func (m *Manager) preferencesFor(ctx context.Context, userID string) notification.RecipientPreferences {
	if m.prefs == nil {
		return notification.DefaultPreferences(userID)
	}
	prefs, err := m.prefs.Get(ctx, userID)
	if err != nil {
		return notification.DefaultPreferences(userID)
	}
	return prefs
}
