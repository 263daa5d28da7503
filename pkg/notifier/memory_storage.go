package notifier

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// MemoryStore is an in-memory NotificationStore for development and tests.
// All methods are safe for concurrent use.
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string][]notification.Notification
	clock         notification.Clock
}

var _ NotificationStore = (*MemoryStore)(nil)

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryStoreClock overrides the clock used for expiry filtering.
func WithMemoryStoreClock(c notification.Clock) MemoryStoreOption {
	return func(s *MemoryStore) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewMemoryStore creates an empty in-memory notification store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		notifications: make(map[string][]notification.Notification),
		clock:         notification.SystemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, notif notification.Notification) error {
	if notif.ID == "" {
		return errors.New("notification ID is required")
	}
	if notif.UserID == "" {
		return notification.ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications[notif.UserID] = append(s.notifications[notif.UserID], notif)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID, notifID string) (notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.notifications[userID] {
		if n.ID == notifID {
			return n, nil
		}
	}
	return notification.Notification{}, ErrNotificationNotFound
}

func (s *MemoryStore) Update(ctx context.Context, notif notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.notifications[notif.UserID]
	for i, n := range list {
		if n.ID == notif.ID {
			list[i] = notif
			return nil
		}
	}
	return ErrNotificationNotFound
}

func (s *MemoryStore) List(ctx context.Context, userID string, opts ListOptions) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	filtered := make([]notification.Notification, 0)
	for _, n := range s.notifications[userID] {
		if n.IsExpired(now) {
			continue
		}
		if !opts.IncludeArchived && n.ArchivedAt != nil {
			continue
		}
		if opts.OnlyUnread && n.ReadAt != nil {
			continue
		}
		if len(opts.Categories) > 0 && !slices.Contains(opts.Categories, n.Category) {
			continue
		}
		if opts.Since != nil && n.CreatedAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, n)
	}

	slices.SortStableFunc(filtered, func(a, b notification.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	start := min(opts.Offset, len(filtered))
	end := len(filtered)
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return filtered[start:end], nil
}

func (s *MemoryStore) ListDue(ctx context.Context, due time.Time) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []notification.Notification
	for _, list := range s.notifications {
		for _, n := range list {
			if n.Status == notification.StatusScheduled && n.ScheduledAt != nil && !n.ScheduledAt.After(due) {
				out = append(out, n)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b notification.Notification) int {
		return a.ScheduledAt.Compare(*b.ScheduledAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID string, notifIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.notifications[userID]
	if !ok {
		return nil
	}

	keep := list[:0]
	for _, n := range list {
		if !slices.Contains(notifIDs, n.ID) {
			keep = append(keep, n)
		}
	}
	s.notifications[userID] = keep
	return nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()
	count := 0
	for _, n := range s.notifications[userID] {
		if n.ReadAt == nil && n.ArchivedAt == nil && !n.IsExpired(now) {
			count++
		}
	}
	return count, nil
}

// MemoryPreferencesStore is an in-memory PreferencesStore.
type MemoryPreferencesStore struct {
	mu    sync.RWMutex
	prefs map[string]notification.RecipientPreferences
}

var _ PreferencesStore = (*MemoryPreferencesStore)(nil)

// NewMemoryPreferencesStore creates an empty in-memory preferences store.
func NewMemoryPreferencesStore() *MemoryPreferencesStore {
	return &MemoryPreferencesStore{prefs: make(map[string]notification.RecipientPreferences)}
}

func (s *MemoryPreferencesStore) Get(ctx context.Context, userID string) (notification.RecipientPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return notification.RecipientPreferences{}, ErrPreferencesNotFound
	}
	return p, nil
}

func (s *MemoryPreferencesStore) Put(ctx context.Context, prefs notification.RecipientPreferences) error {
	if prefs.UserID == "" {
		return notification.ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs[prefs.UserID] = prefs
	return nil
}
