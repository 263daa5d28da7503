// Package notification contains the shared data model for the notification
// routing and delivery engine: channel descriptors, the notification entity
// itself, and recipient preferences.
//
// All values in this package are construction-validated. Channel descriptors
// and recipient preferences are immutable after construction; transformation
// methods return new values instead of mutating in place. The Notification
// entity carries its own lifecycle state (pending, scheduled, sent, failed,
// read, archived) and enforces that at most one terminal marker is active at
// a time.
//
// # Usage
//
// Build a channel and a notification:
//
//	ch, err := notification.NewChannel(notification.ChannelEmail)
//	if err != nil {
//	    // handle error
//	}
//
//	notif, err := notification.New("user-123", "billing", "Invoice ready", "Your invoice is ready.",
//	    []notification.ChannelDescriptor{ch},
//	    notification.WithPriority(notification.PriorityHigh),
//	)
//
// Build preferences with a quiet-hours window:
//
//	prefs, err := notification.NewPreferences("user-123",
//	    notification.WithDefaultChannels(notification.ChannelInApp, notification.ChannelEmail),
//	    notification.WithQuietHours(notification.QuietHours{
//	        Start:    "22:00",
//	        End:      "08:00",
//	        Timezone: "Europe/Berlin",
//	    }),
//	)
//
// Time-dependent behavior (expiration, scheduling) takes an explicit instant
// or an injected Clock so it stays deterministic in tests.
package notification
