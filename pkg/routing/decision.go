package routing

import (
	"time"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// Decision reason strings. They are machine-readable outputs consumed by
// logging and analytics, so their wording is part of the contract.
const (
	ReasonGlobalDisabled     = "Global notifications disabled"
	ReasonExpired            = "Notification expired"
	ReasonScheduled          = "Notification scheduled for future"
	ReasonQuietHours         = "Delivery suppressed during quiet hours"
	ReasonQuietHoursNoInApp  = "No in-app channel enabled during quiet hours"
	ReasonNoMatchingChannels = "No matching channels for category"
)

// Decision is the outcome of evaluating one notification against one
// recipient's preferences at one instant. It is produced fresh per Route call
// and never persisted by the engine.
type Decision struct {
	ShouldDeliver bool                             `json:"should_deliver"`
	Channels      []notification.ChannelDescriptor `json:"-"`
	Reason        string                           `json:"reason,omitempty"`
	DelayUntil    *time.Time                       `json:"delay_until,omitempty"`
}

// deliver builds a positive decision for the given channel set.
func deliver(channels []notification.ChannelDescriptor) Decision {
	return Decision{ShouldDeliver: true, Channels: channels}
}

// skip builds a negative decision with a reason.
func skip(reason string) Decision {
	return Decision{Reason: reason}
}

// postpone builds a negative decision with a reason and a retry-after hint.
func postpone(reason string, until time.Time) Decision {
	return Decision{Reason: reason, DelayUntil: &until}
}
