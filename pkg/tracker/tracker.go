package tracker

import (
	"context"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"

	"time"

	"github.com/dispatchlab/notifykit/pkg/logger"
	"github.com/dispatchlab/notifykit/pkg/notification"
)

// DefaultMaxAttempts caps the attempt history kept per record. Oldest entries
// are dropped first once the cap is reached.
const DefaultMaxAttempts = 100

// lockStripes is the number of striped mutexes guarding record keys. Two keys
// sharing a stripe serialize against each other, which is harmless; a key
// never runs concurrently with itself, which is the required guarantee.
const lockStripes = 64

// Tracker records every delivery attempt per (notification, channel) pair and
// answers status and statistics queries.
type Tracker struct {
	store       Store
	stripes     [lockStripes]sync.Mutex
	maxAttempts int
	clock       notification.Clock
	logger      *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStore sets the record store. Default is an empty MemoryStore.
func WithStore(s Store) Option {
	return func(t *Tracker) {
		if s != nil {
			t.store = s
		}
	}
}

// WithMaxAttempts overrides the per-record attempt history cap.
func WithMaxAttempts(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxAttempts = n
		}
	}
}

// WithClock sets the clock used to stamp attempts and records.
func WithClock(c notification.Clock) Option {
	return func(t *Tracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a delivery tracker. Tests get isolation by constructing their
// own instance; there is deliberately no global reset.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		store:       NewMemoryStore(),
		maxAttempts: DefaultMaxAttempts,
		clock:       notification.SystemClock{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// stripe returns the mutex guarding the given record key.
func (t *Tracker) stripe(notificationID string, channel notification.ChannelType) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(notificationID))
	_, _ = h.Write([]byte(channel))
	return &t.stripes[h.Sum32()%lockStripes]
}

// RecordDeliveryAttempt appends an attempt to the record for the pair,
// creating the record on first use. The attempt's RetryCount equals the
// number of previously recorded attempts. Concurrent calls for the same pair
// are serialized; different pairs proceed independently.
func (t *Tracker) RecordDeliveryAttempt(ctx context.Context, notificationID string, channel notification.ChannelType, success bool, info AttemptInfo) (Record, error) {
	if notificationID == "" {
		return Record{}, ErrNotificationIDRequired
	}
	if channel == "" {
		return Record{}, ErrChannelRequired
	}

	mu := t.stripe(notificationID, channel)
	mu.Lock()
	defer mu.Unlock()

	rec, ok, err := t.store.Get(ctx, notificationID, channel)
	if err != nil {
		return Record{}, err
	}

	now := t.clock.Now()
	if !ok {
		rec = Record{
			NotificationID: notificationID,
			Channel:        channel,
			CreatedAt:      now,
		}
	}

	attempt := Attempt{
		AttemptedAt:    now,
		Success:        success,
		Error:          info.Error,
		RetryCount:     len(rec.Attempts),
		DeliveryTimeMs: info.DeliveryTimeMs,
	}
	rec.Attempts = append(rec.Attempts, attempt)
	if len(rec.Attempts) > t.maxAttempts {
		rec.Attempts = rec.Attempts[len(rec.Attempts)-t.maxAttempts:]
	}

	if success {
		rec.Delivered = true
		rec.DeliveredAt = &now
		rec.MessageID = info.MessageID
		rec.Error = ""
	} else {
		rec.Error = info.Error
	}
	rec.UpdatedAt = now

	if err := t.store.Put(ctx, rec); err != nil {
		return Record{}, err
	}

	t.logger.Debug("delivery attempt recorded",
		logger.NotificationID(notificationID),
		logger.Channel(channel),
		slog.Bool("success", success),
		logger.Attempt(attempt.RetryCount+1),
	)

	return rec, nil
}

// GetDeliveryStatus answers the status query for one pair.
func (t *Tracker) GetDeliveryStatus(ctx context.Context, notificationID string, channel notification.ChannelType) (Status, error) {
	rec, ok, err := t.store.Get(ctx, notificationID, channel)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, ErrRecordNotFound
	}

	return Status{
		Delivered:   rec.Delivered,
		DeliveredAt: rec.DeliveredAt,
		Attempts:    len(rec.Attempts),
		LastAttempt: rec.LastAttempt(),
		Error:       rec.Error,
	}, nil
}

// GetDeliveryStats aggregates outcomes for records created inside
// [start, end]. Passing channels scopes the aggregation to those channels;
// the per-channel breakdown is always included.
func (t *Tracker) GetDeliveryStats(ctx context.Context, start, end time.Time, channels ...notification.ChannelType) (Stats, error) {
	records, err := t.store.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Start:     start,
		End:       end,
		ByChannel: make(map[notification.ChannelType]ChannelStats),
	}

	var (
		timingSumMs   int64
		timingSamples int
		perChanTiming = make(map[notification.ChannelType][2]int64) // sum, count
	)

	for _, rec := range records {
		if rec.CreatedAt.Before(start) || rec.CreatedAt.After(end) {
			continue
		}
		if len(channels) > 0 && !slices.Contains(channels, rec.Channel) {
			continue
		}

		stats.Total++
		stats.TotalAttempts += len(rec.Attempts)
		cs := stats.ByChannel[rec.Channel]
		cs.Total++
		cs.TotalAttempts += len(rec.Attempts)

		if rec.Delivered {
			stats.Successful++
			cs.Successful++
		} else {
			stats.Failed++
			cs.Failed++
		}

		for _, a := range rec.Attempts {
			if a.DeliveryTimeMs == nil {
				continue
			}
			timingSumMs += *a.DeliveryTimeMs
			timingSamples++
			pct := perChanTiming[rec.Channel]
			pct[0] += *a.DeliveryTimeMs
			pct[1]++
			perChanTiming[rec.Channel] = pct
		}

		stats.ByChannel[rec.Channel] = cs
	}

	if stats.Total > 0 {
		stats.DeliveryRate = float64(stats.Successful) / float64(stats.Total)
	}
	if timingSamples > 0 {
		stats.AvgDeliveryTimeMs = float64(timingSumMs) / float64(timingSamples)
	}
	for ch, cs := range stats.ByChannel {
		if cs.Total > 0 {
			cs.DeliveryRate = float64(cs.Successful) / float64(cs.Total)
		}
		if pct := perChanTiming[ch]; pct[1] > 0 {
			cs.AvgDeliveryTimeMs = float64(pct[0]) / float64(pct[1])
		}
		stats.ByChannel[ch] = cs
	}

	return stats, nil
}

// CancelPendingDeliveries removes undelivered records for a notification,
// optionally scoped to specific channels, and returns the number removed.
// Delivered records are kept for auditing.
func (t *Tracker) CancelPendingDeliveries(ctx context.Context, notificationID string, channels ...notification.ChannelType) (int, error) {
	if notificationID == "" {
		return 0, ErrNotificationIDRequired
	}

	records, err := t.store.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, rec := range records {
		if rec.NotificationID != notificationID || rec.Delivered {
			continue
		}
		if len(channels) > 0 && !slices.Contains(channels, rec.Channel) {
			continue
		}

		mu := t.stripe(rec.NotificationID, rec.Channel)
		mu.Lock()
		err := t.store.Delete(ctx, rec.NotificationID, rec.Channel)
		mu.Unlock()
		if err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// ClearOldRecords removes records created before olderThan and returns the
// number removed. This is the ledger's only garbage collection.
func (t *Tracker) ClearOldRecords(ctx context.Context, olderThan time.Time) (int, error) {
	records, err := t.store.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, rec := range records {
		if !rec.CreatedAt.Before(olderThan) {
			continue
		}

		mu := t.stripe(rec.NotificationID, rec.Channel)
		mu.Lock()
		err := t.store.Delete(ctx, rec.NotificationID, rec.Channel)
		mu.Unlock()
		if err != nil {
			return count, err
		}
		count++
	}

	if count > 0 {
		t.logger.Debug("cleared old delivery records", slog.Int("count", count))
	}

	return count, nil
}
