package inapp

import (
	"context"
	"errors"
	"sync"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
	"github.com/dispatchlab/notifykit/pkg/notification"
)

// ErrHubClosed is returned by Send after Close.
var ErrHubClosed = errors.New("in-app hub is closed")

// Subscription is one live consumer of a user's notifications.
type Subscription struct {
	ch     chan notification.Notification
	mu     sync.RWMutex
	closed bool
}

func newSubscription(bufferSize int) *Subscription {
	return &Subscription{ch: make(chan notification.Notification, bufferSize)}
}

// Receive returns the channel delivering the user's notifications.
// The channel is closed when the subscription ends.
func (s *Subscription) Receive() <-chan notification.Notification {
	return s.ch
}

// Close ends the subscription. Idempotent.
func (s *Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send is non-blocking; false means closed or full.
func (s *Subscription) send(n notification.Notification) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- n:
		return true
	default:
		return false
	}
}

// Hub routes notifications to per-user subscriptions and implements
// dispatch.Transport. All methods are safe for concurrent use.
type Hub struct {
	mu         sync.RWMutex
	users      map[string]map[*Subscription]struct{}
	bufferSize int
	closed     bool
	done       chan struct{}
	cleanupWg  sync.WaitGroup
}

var _ dispatch.Transport = (*Hub)(nil)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBufferSize sets the per-subscription channel buffer. Values below 1
// are raised to 1 so sends stay non-blocking.
func WithBufferSize(size int) HubOption {
	return func(h *Hub) { h.bufferSize = max(size, 1) }
}

// NewHub creates an in-app delivery hub. The default subscription buffer
// holds 64 notifications.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		users:      make(map[string]map[*Subscription]struct{}),
		bufferSize: 64,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe opens a subscription for one user's notifications. The
// subscription is cleaned up when ctx is cancelled or Close is called on
// either side. A closed hub returns an already-closed subscription.
func (h *Hub) Subscribe(ctx context.Context, userID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := newSubscription(h.bufferSize)
	if h.closed {
		_ = sub.Close()
		return sub
	}

	subs, ok := h.users[userID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.users[userID] = subs
	}
	subs[sub] = struct{}{}

	if ctx.Done() != nil {
		h.cleanupWg.Add(1)
		go func() {
			defer h.cleanupWg.Done()
			select {
			case <-ctx.Done():
				h.unsubscribe(userID, sub)
			case <-h.done:
				// Close already tore the subscription down.
			}
		}()
	}

	return sub
}

// Send implements dispatch.Transport. Delivery succeeds regardless of how
// many subscriptions are live; users without an open connection pick the
// notification up from their persisted feed.
func (h *Hub) Send(ctx context.Context, payload dispatch.Payload) (dispatch.SendResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return dispatch.SendResult{}, ErrHubClosed
	}

	for sub := range h.users[payload.Notification.UserID] {
		if !sub.send(payload.Notification) {
			// Detach stalled subscribers off the read lock.
			go h.unsubscribe(payload.Notification.UserID, sub)
		}
	}

	return dispatch.SendResult{Success: true, MessageID: payload.Notification.ID}, nil
}

// SubscriberCount reports the number of open subscriptions for a user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Close shuts the hub down and closes every subscription. Safe to call
// multiple times.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	close(h.done)
	for _, subs := range h.users {
		for sub := range subs {
			_ = sub.Close()
		}
	}
	clear(h.users)
	h.mu.Unlock()

	h.cleanupWg.Wait()
	return nil
}

func (h *Hub) unsubscribe(userID string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.users[userID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
	_ = sub.Close()
}
