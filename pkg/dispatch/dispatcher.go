package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dispatchlab/notifykit/pkg/logger"
	"github.com/dispatchlab/notifykit/pkg/notification"
	"github.com/dispatchlab/notifykit/pkg/tracker"
)

// DefaultMaxAttempts is the retry budget used when callers pass a
// non-positive value to DeliverToChannelWithRetry.
const DefaultMaxAttempts = 3

// Result is the caller-facing outcome of delivering one notification through
// one channel (or, for bulk delivery, through a set of channels).
type Result struct {
	NotificationID string                   `json:"notification_id"`
	Channel        notification.ChannelType `json:"channel,omitempty"`
	Success        bool                     `json:"success"`
	MessageID      string                   `json:"message_id,omitempty"`
	Error          string                   `json:"error,omitempty"`
	DeliveredAt    *time.Time               `json:"delivered_at,omitempty"`
	FailedAt       *time.Time               `json:"failed_at,omitempty"`
	Attempts       int                      `json:"attempts"`

	// Permanent reports that the failure cannot be fixed by retrying.
	Permanent bool `json:"-"`
}

// Dispatcher executes delivery plans against registered channel transports.
// Safe for concurrent use once constructed.
type Dispatcher struct {
	transports  map[notification.ChannelType]Transport
	tracker     *tracker.Tracker
	backoff     BackoffStrategy
	sendTimeout time.Duration
	clock       notification.Clock
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTransport registers the transport for a channel type.
func WithTransport(typ notification.ChannelType, t Transport) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.transports[typ] = t
		}
	}
}

// WithBackoff overrides the retry backoff strategy.
func WithBackoff(b BackoffStrategy) Option {
	return func(d *Dispatcher) {
		if b != nil {
			d.backoff = b
		}
	}
}

// WithSendTimeout bounds each individual transport call. Zero disables the
// per-call timeout; the caller's context still applies.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// WithClock sets the clock used for result timestamps.
func WithClock(c notification.Clock) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a dispatcher writing its attempt bookkeeping to trk.
// A nil tracker gets replaced with a standalone in-memory one.
func New(trk *tracker.Tracker, opts ...Option) *Dispatcher {
	if trk == nil {
		trk = tracker.New()
	}

	d := &Dispatcher{
		transports: make(map[notification.ChannelType]Transport),
		tracker:    trk,
		backoff:    DefaultBackoffStrategy(),
		clock:      notification.SystemClock{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tracker returns the attempt ledger the dispatcher writes to.
func (d *Dispatcher) Tracker() *tracker.Tracker {
	return d.tracker
}

// DeliverToChannel delivers one notification through one channel. The result
// is always returned, never an error: transport failures, unsupported channel
// types, and disabled channels all come back as failed results, and each
// outcome is recorded in the tracker.
func (d *Dispatcher) DeliverToChannel(ctx context.Context, notif notification.Notification, ch notification.ChannelDescriptor) Result {
	if !ch.Type().Valid() {
		return d.failPermanent(ctx, notif, ch.Type(), fmt.Sprintf("%s: %s", ErrUnsupportedChannel.Error(), ch.Type()))
	}

	if !ch.Enabled() {
		return d.failPermanent(ctx, notif, ch.Type(), fmt.Sprintf("Channel %s is not enabled", ch.Type()))
	}

	transport, ok := d.transports[ch.Type()]
	if !ok {
		return d.failPermanent(ctx, notif, ch.Type(), fmt.Sprintf("%s: %s", ErrNoTransport.Error(), ch.Type()))
	}

	sendCtx := ctx
	if d.sendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := transport.Send(sendCtx, Payload{Notification: notif, Channel: ch})
	elapsed := time.Since(start)

	if err != nil {
		msg := err.Error()
		if errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			msg = errRequestTimeout
		}
		r := d.fail(ctx, notif, ch.Type(), msg, tracker.DeliveryTime(elapsed))
		r.Permanent = errors.Is(err, ErrPermanent)
		return r
	}
	if !res.Success {
		return d.fail(ctx, notif, ch.Type(), ErrTransportFailure.Error(), tracker.DeliveryTime(elapsed))
	}

	now := d.clock.Now()
	if _, err := d.tracker.RecordDeliveryAttempt(ctx, notif.ID, ch.Type(), true, tracker.AttemptInfo{
		MessageID:      res.MessageID,
		DeliveryTimeMs: tracker.DeliveryTime(elapsed),
	}); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to record delivery attempt",
			logger.NotificationID(notif.ID),
			logger.Channel(ch.Type()),
			logger.Error(err),
		)
	}

	d.logger.LogAttrs(ctx, slog.LevelDebug, "Delivered notification",
		logger.NotificationID(notif.ID),
		logger.Channel(ch.Type()),
		logger.Duration(elapsed),
	)

	return Result{
		NotificationID: notif.ID,
		Channel:        ch.Type(),
		Success:        true,
		MessageID:      res.MessageID,
		DeliveredAt:    &now,
		Attempts:       1,
	}
}

// fail records a failed attempt and builds the failure result.
func (d *Dispatcher) fail(ctx context.Context, notif notification.Notification, ch notification.ChannelType, msg string, timing *int64) Result {
	now := d.clock.Now()

	if _, err := d.tracker.RecordDeliveryAttempt(ctx, notif.ID, ch, false, tracker.AttemptInfo{
		Error:          msg,
		DeliveryTimeMs: timing,
	}); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "Failed to record delivery attempt",
			logger.NotificationID(notif.ID),
			logger.Channel(ch),
			logger.Error(err),
		)
	}

	d.logger.LogAttrs(ctx, slog.LevelDebug, "Delivery failed",
		logger.NotificationID(notif.ID),
		logger.Channel(ch),
		slog.String("error", msg),
	)

	return Result{
		NotificationID: notif.ID,
		Channel:        ch,
		Error:          msg,
		FailedAt:       &now,
		Attempts:       1,
	}
}

// failPermanent records a failure that no amount of retrying can fix, such
// as an unsupported channel type or a missing transport.
func (d *Dispatcher) failPermanent(ctx context.Context, notif notification.Notification, ch notification.ChannelType, msg string) Result {
	r := d.fail(ctx, notif, ch, msg, nil)
	r.Permanent = true
	return r
}

// DeliverToChannels fans delivery out across the given channels and waits for
// all of them. Disabled channels are skipped entirely; results come back in
// channel order.
func (d *Dispatcher) DeliverToChannels(ctx context.Context, notif notification.Notification, channels []notification.ChannelDescriptor) []Result {
	enabled := make([]notification.ChannelDescriptor, 0, len(channels))
	for _, ch := range channels {
		if ch.Enabled() {
			enabled = append(enabled, ch)
		}
	}

	results := make([]Result, len(enabled))
	var wg sync.WaitGroup
	wg.Add(len(enabled))
	for i, ch := range enabled {
		go func(i int, ch notification.ChannelDescriptor) {
			defer wg.Done()
			results[i] = d.DeliverToChannel(ctx, notif, ch)
		}(i, ch)
	}
	wg.Wait()

	return results
}

// DeliverToChannelWithRetry retries a single-channel delivery up to
// maxAttempts times with exponential backoff, returning on the first success.
// Permanent failures stop the loop immediately: unsupported channel types,
// disabled channels, missing transports, and transport errors wrapping
// ErrPermanent. The returned result carries the total attempt count.
func (d *Dispatcher) DeliverToChannelWithRetry(ctx context.Context, notif notification.Notification, ch notification.ChannelDescriptor, maxAttempts int) Result {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var res Result
	for attempt := 0; attempt < maxAttempts; attempt++ {
		res = d.DeliverToChannel(ctx, notif, ch)
		res.Attempts = attempt + 1
		if res.Success || res.Permanent {
			return res
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := d.backoff.NextInterval(attempt + 1)
		select {
		case <-ctx.Done():
			now := d.clock.Now()
			res.Error = fmt.Sprintf("Failed to schedule retry: %v", ctx.Err())
			res.FailedAt = &now
			return res
		case <-time.After(delay):
		}
	}

	return res
}

// DeliverBulk delivers each notification across the given channels
// concurrently and aggregates per notification: a notification counts as
// delivered when at least one channel succeeded, and its attempt count sums
// all channels' attempts.
func (d *Dispatcher) DeliverBulk(ctx context.Context, notifs []notification.Notification, channels []notification.ChannelDescriptor) []Result {
	results := make([]Result, len(notifs))
	var wg sync.WaitGroup
	wg.Add(len(notifs))
	for i, notif := range notifs {
		go func(i int, notif notification.Notification) {
			defer wg.Done()
			perChannel := d.DeliverToChannels(ctx, notif, channels)
			results[i] = d.aggregate(notif, perChannel)
		}(i, notif)
	}
	wg.Wait()

	return results
}

// aggregate folds per-channel results into one any-channel-success result.
func (d *Dispatcher) aggregate(notif notification.Notification, perChannel []Result) Result {
	agg := Result{NotificationID: notif.ID}

	var errs []string
	for _, r := range perChannel {
		agg.Attempts += r.Attempts
		if r.Success && !agg.Success {
			agg.Success = true
			agg.Channel = r.Channel
			agg.MessageID = r.MessageID
			agg.DeliveredAt = r.DeliveredAt
		}
		if !r.Success && r.Error != "" {
			errs = append(errs, fmt.Sprintf("%s: %s", r.Channel, r.Error))
		}
	}

	if !agg.Success {
		now := d.clock.Now()
		agg.FailedAt = &now
		if len(errs) > 0 {
			agg.Error = strings.Join(errs, "; ")
		} else {
			agg.Error = "No enabled channels to deliver to"
		}
	}

	return agg
}
