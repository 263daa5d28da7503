package notification

import (
	"maps"
	"time"
)

// Priority represents the notification priority level.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

// String returns the lower-case name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// Status represents the notification lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusRead      Status = "read"
	StatusArchived  Status = "archived"
)

// Notification is the unit of work for the routing and delivery engine.
type Notification struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	OrganizationID string              `json:"organization_id,omitempty"`
	Category       string              `json:"category"`
	Priority       Priority            `json:"priority"`
	Title          string              `json:"title"`
	Message        string              `json:"message"`
	Channels       []ChannelDescriptor `json:"-"`
	Metadata       map[string]any      `json:"metadata,omitempty"`
	ActionURL      string              `json:"action_url,omitempty"`
	ScheduledAt    *time.Time          `json:"scheduled_at,omitempty"`
	ExpiresAt      *time.Time          `json:"expires_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	ReadAt         *time.Time          `json:"read_at,omitempty"`
	FailedAt       *time.Time          `json:"failed_at,omitempty"`
	ArchivedAt     *time.Time          `json:"archived_at,omitempty"`
	RetryCount     int                 `json:"retry_count"`
	Status         Status              `json:"status"`

	// clock is only consulted during construction; nil afterwards.
	clock Clock
}

// Option configures a Notification at construction time.
type Option func(*Notification)

// WithID sets an explicit notification ID instead of letting the caller's
// orchestration layer generate one.
func WithID(id string) Option {
	return func(n *Notification) { n.ID = id }
}

// WithOrganization associates the notification with a tenant organization.
func WithOrganization(orgID string) Option {
	return func(n *Notification) { n.OrganizationID = orgID }
}

// WithPriority sets the priority. Default is PriorityMedium.
func WithPriority(p Priority) Option {
	return func(n *Notification) { n.Priority = p }
}

// WithMetadata attaches a custom payload. The map is copied.
func WithMetadata(md map[string]any) Option {
	return func(n *Notification) {
		if len(md) > 0 {
			n.Metadata = maps.Clone(md)
		}
	}
}

// WithActionURL sets the call-to-action URL.
func WithActionURL(url string) Option {
	return func(n *Notification) { n.ActionURL = url }
}

// WithScheduledAt defers delivery until the given instant.
func WithScheduledAt(t time.Time) Option {
	return func(n *Notification) { n.ScheduledAt = &t }
}

// WithExpiresAt excludes the notification from delivery after the given instant.
func WithExpiresAt(t time.Time) Option {
	return func(n *Notification) { n.ExpiresAt = &t }
}

// WithClock overrides the clock used to stamp CreatedAt and to validate
// the scheduling invariant.
func WithClock(c Clock) Option {
	return func(n *Notification) {
		if c != nil {
			n.clock = c
		}
	}
}

// New creates a validated notification in the pending state.
// ScheduledAt, when set, must be strictly in the future at creation time.
func New(userID, category, title, message string, channels []ChannelDescriptor, opts ...Option) (Notification, error) {
	n := Notification{
		UserID:   userID,
		Category: category,
		Priority: PriorityMedium,
		Title:    title,
		Message:  message,
		Channels: append([]ChannelDescriptor(nil), channels...),
		Status:   StatusPending,
		clock:    SystemClock{},
	}

	for _, opt := range opts {
		opt(&n)
	}

	now := n.clock.Now()
	n.CreatedAt = now
	n.clock = nil

	switch {
	case n.UserID == "":
		return Notification{}, ErrUserIDRequired
	case n.Category == "":
		return Notification{}, ErrCategoryRequired
	case n.Title == "":
		return Notification{}, ErrTitleRequired
	case n.Message == "":
		return Notification{}, ErrMessageRequired
	case len(n.Channels) == 0:
		return Notification{}, ErrNoChannels
	}

	if n.ScheduledAt != nil {
		if !n.ScheduledAt.After(now) {
			return Notification{}, ErrScheduledInPast
		}
		n.Status = StatusScheduled
	}

	return n, nil
}

// IsExpired reports whether the notification has expired at the given instant.
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}

// IsReady reports whether the notification is deliverable at the given
// instant: its scheduled time (if any) has passed and it has not expired.
func (n *Notification) IsReady(now time.Time) bool {
	if n.IsExpired(now) {
		return false
	}
	return n.ScheduledAt == nil || !now.Before(*n.ScheduledAt)
}

// EnabledChannels returns the subset of the notification's channels that are
// enabled.
func (n *Notification) EnabledChannels() []ChannelDescriptor {
	out := make([]ChannelDescriptor, 0, len(n.Channels))
	for _, ch := range n.Channels {
		if ch.Enabled() {
			out = append(out, ch)
		}
	}
	return out
}

// HasChannel reports whether the notification targets the given channel type,
// regardless of the enabled flag.
func (n *Notification) HasChannel(typ ChannelType) bool {
	for _, ch := range n.Channels {
		if ch.Type() == typ {
			return true
		}
	}
	return false
}

// MarkRead records that the user acted on the notification.
// Read-after-sent is legal; reading a failed or archived notification is not.
func (n *Notification) MarkRead(now time.Time) error {
	if n.FailedAt != nil || n.ArchivedAt != nil {
		return ErrTerminalState
	}
	n.ReadAt = &now
	n.Status = StatusRead
	return nil
}

// MarkFailed records a delivery failure as the notification's terminal state.
func (n *Notification) MarkFailed(now time.Time) error {
	if n.ReadAt != nil || n.ArchivedAt != nil {
		return ErrTerminalState
	}
	n.FailedAt = &now
	n.Status = StatusFailed
	return nil
}

// Archive removes the notification from the user's active list.
func (n *Notification) Archive(now time.Time) error {
	if n.FailedAt != nil {
		return ErrTerminalState
	}
	n.ArchivedAt = &now
	n.Status = StatusArchived
	return nil
}
