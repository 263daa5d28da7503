// Package dispatch executes routing decisions against per-channel transport
// adapters, with retry, backoff, and attempt bookkeeping.
//
// The Dispatcher owns the single point where channel types fan out to
// transports: register one Transport per channel type and every delivery goes
// through the same exhaustive dispatch. Channel-level failures never surface
// as errors; callers always receive a Result per channel, and every attempt,
// successful or not, lands in the injected tracker.
//
//	trk := tracker.New()
//	d := dispatch.New(trk,
//	    dispatch.WithTransport(notification.ChannelEmail, emailTransport),
//	    dispatch.WithTransport(notification.ChannelInApp, inappTransport),
//	    dispatch.WithSendTimeout(10*time.Second),
//	)
//
//	results := d.DeliverToChannels(ctx, notif, decision.Channels)
//
// DeliverToChannels and DeliverBulk fan work out per channel and per
// notification respectively and wait for all of it, so end-to-end latency is
// bounded by the slowest leg rather than the sum. No ordering is promised
// across channels or notifications. Cancelling the context stops new attempts
// from being issued; in-flight transport calls finish or abort per the
// transport's own semantics.
package dispatch
