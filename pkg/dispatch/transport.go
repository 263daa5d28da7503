package dispatch

import (
	"context"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// Payload is what a transport adapter receives for one delivery: the full
// notification plus the channel descriptor it is being delivered through.
// Transports derive their provider-specific request shape from it (recipient
// address, device token, webhook URL) via the channel config and notification
// metadata.
type Payload struct {
	Notification notification.Notification
	Channel      notification.ChannelDescriptor
}

// SendResult is the transport-side outcome of a single send.
type SendResult struct {
	Success   bool
	MessageID string
}

// Transport adapts one delivery channel's provider. Implementations must not
// retry internally; retry policy belongs to the dispatcher. A returned error
// is treated as a retryable failure and its message is propagated verbatim
// into the delivery result.
type Transport interface {
	Send(ctx context.Context, payload Payload) (SendResult, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, payload Payload) (SendResult, error)

func (f TransportFunc) Send(ctx context.Context, payload Payload) (SendResult, error) {
	return f(ctx, payload)
}
