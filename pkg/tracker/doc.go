// Package tracker keeps the delivery-attempt ledger: one record per
// (notification, channel) pair, every attempt appended in call order.
//
// The Tracker is an explicitly constructed component, injected into the
// dispatcher; there is no package-level singleton. Mutation goes exclusively
// through RecordDeliveryAttempt, which serializes concurrent calls for the
// same key with striped locks while leaving different keys uncoordinated.
//
// Records live in a pluggable Store. MemoryStore is the reference
// implementation; RedisStore provides a durable alternative with the same
// single-process serialization guarantees.
//
//	trk := tracker.New()
//	_, err := trk.RecordDeliveryAttempt(ctx, notifID, notification.ChannelEmail, true, tracker.AttemptInfo{
//	    MessageID:      "pm-123",
//	    DeliveryTimeMs: tracker.DeliveryTime(320 * time.Millisecond),
//	})
//
// Attempt history per record is capped (100 entries by default) with
// ring-buffer semantics: the oldest attempts are dropped first. Records are
// only removed by the explicit ClearOldRecords sweep or by
// CancelPendingDeliveries; there is no automatic TTL in the memory store.
package tracker
