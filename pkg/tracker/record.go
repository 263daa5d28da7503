package tracker

import (
	"time"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// Attempt is one try of sending a notification through one channel's
// transport. RetryCount equals the number of attempts recorded before it.
type Attempt struct {
	AttemptedAt    time.Time `json:"attempted_at"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	RetryCount     int       `json:"retry_count"`
	DeliveryTimeMs *int64    `json:"delivery_time_ms,omitempty"`
}

// Record is the ledger entry for one (notification, channel) pair.
// Delivered, DeliveredAt, and MessageID reflect the most recent successful
// attempt; Error reflects the most recent failed attempt and is cleared by a
// subsequent success.
type Record struct {
	NotificationID string                   `json:"notification_id"`
	Channel        notification.ChannelType `json:"channel"`
	Delivered      bool                     `json:"delivered"`
	DeliveredAt    *time.Time               `json:"delivered_at,omitempty"`
	Attempts       []Attempt                `json:"attempts"`
	MessageID      string                   `json:"message_id,omitempty"`
	Error          string                   `json:"error,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// LastAttempt returns the most recent attempt, or nil for an empty record.
func (r *Record) LastAttempt() *Attempt {
	if len(r.Attempts) == 0 {
		return nil
	}
	a := r.Attempts[len(r.Attempts)-1]
	return &a
}

// clone deep-copies the record so store implementations never hand out
// aliased attempt slices.
func (r Record) clone() Record {
	cp := r
	cp.Attempts = make([]Attempt, len(r.Attempts))
	copy(cp.Attempts, r.Attempts)
	if r.DeliveredAt != nil {
		t := *r.DeliveredAt
		cp.DeliveredAt = &t
	}
	return cp
}

// AttemptInfo carries the optional details of a delivery attempt.
type AttemptInfo struct {
	MessageID      string
	Error          string
	DeliveryTimeMs *int64
}

// DeliveryTime converts a measured duration into the optional millisecond
// form AttemptInfo carries.
func DeliveryTime(d time.Duration) *int64 {
	ms := d.Milliseconds()
	return &ms
}

// Status is the answer to a delivery-status query for one
// (notification, channel) pair.
type Status struct {
	Delivered   bool       `json:"delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	Attempts    int        `json:"attempts"`
	LastAttempt *Attempt   `json:"last_attempt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// ChannelStats aggregates delivery outcomes for one channel.
type ChannelStats struct {
	Total             int     `json:"total"`
	Successful        int     `json:"successful"`
	Failed            int     `json:"failed"`
	TotalAttempts     int     `json:"total_attempts"`
	DeliveryRate      float64 `json:"delivery_rate"`
	AvgDeliveryTimeMs float64 `json:"avg_delivery_time_ms"`
}

// Stats aggregates delivery outcomes over a time window.
type Stats struct {
	Start             time.Time                                 `json:"start"`
	End               time.Time                                 `json:"end"`
	Total             int                                       `json:"total"`
	Successful        int                                       `json:"successful"`
	Failed            int                                       `json:"failed"`
	TotalAttempts     int                                       `json:"total_attempts"`
	DeliveryRate      float64                                   `json:"delivery_rate"`
	AvgDeliveryTimeMs float64                                   `json:"avg_delivery_time_ms"`
	ByChannel         map[notification.ChannelType]ChannelStats `json:"by_channel"`
}
