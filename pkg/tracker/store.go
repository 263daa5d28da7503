package tracker

import (
	"context"

	"github.com/dispatchlab/notifykit/pkg/notification"
)

// Store persists delivery records keyed by (notificationID, channel).
// Implementations only need to be safe for concurrent access; per-key
// read-modify-write atomicity is provided by the Tracker on top.
type Store interface {
	// Get retrieves one record. The boolean reports whether it exists.
	Get(ctx context.Context, notificationID string, channel notification.ChannelType) (Record, bool, error)

	// Put creates or replaces a record.
	Put(ctx context.Context, record Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, notificationID string, channel notification.ChannelType) error

	// List returns all records. Used by statistics and sweep operations.
	List(ctx context.Context) ([]Record, error)
}
