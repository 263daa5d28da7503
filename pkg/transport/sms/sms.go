// Package sms delivers notifications as text messages through a pluggable
// Gateway. The destination number comes from the channel configuration
// ("phone") with a fallback to the notification's "phone" metadata entry.
package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
)

var (
	ErrPhoneRequired = errors.New("sms.errors.phone_number_required")
	ErrSendFailed    = errors.New("sms.errors.send_failed")
)

// E.164: plus sign, up to 15 digits, no leading zero.
var phoneRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// maxBodyLength caps the rendered text at three concatenated SMS segments.
const maxBodyLength = 459

// Gateway sends one text message. Implementations wrap a concrete SMS
// provider or a development stand-in.
type Gateway interface {
	SendSMS(ctx context.Context, to, body string) error
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, to, body string) error

func (f GatewayFunc) SendSMS(ctx context.Context, to, body string) error { return f(ctx, to, body) }

// Transport renders notifications into short text messages.
type Transport struct {
	gateway Gateway
}

var _ dispatch.Transport = (*Transport)(nil)

// New creates an SMS transport. A nil gateway falls back to the
// development gateway, which only logs.
func New(gateway Gateway) *Transport {
	if gateway == nil {
		gateway = NewDevGateway(slog.Default())
	}
	return &Transport{gateway: gateway}
}

// Send implements dispatch.Transport.
func (t *Transport) Send(ctx context.Context, payload dispatch.Payload) (dispatch.SendResult, error) {
	to := strings.TrimSpace(payload.Channel.ConfigString("phone"))
	if to == "" {
		if v, ok := payload.Notification.Metadata["phone"].(string); ok {
			to = strings.TrimSpace(v)
		}
	}
	if to == "" {
		return dispatch.SendResult{}, fmt.Errorf("%w: notification %s has no phone number", ErrPhoneRequired, payload.Notification.ID)
	}
	if !phoneRegex.MatchString(to) {
		return dispatch.SendResult{}, fmt.Errorf("%w: %q is not E.164", ErrPhoneRequired, to)
	}

	body := truncateBody(payload.Notification.Title + ": " + payload.Notification.Message)

	if err := t.gateway.SendSMS(ctx, to, body); err != nil {
		return dispatch.SendResult{}, errors.Join(ErrSendFailed, err)
	}
	return dispatch.SendResult{Success: true, MessageID: uuid.New().String()}, nil
}

// truncateBody caps the message at maxBodyLength bytes, cutting on a rune
// boundary so multibyte text stays valid UTF-8.
func truncateBody(body string) string {
	if len(body) <= maxBodyLength {
		return body
	}
	cut := maxBodyLength - 3
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}

// DevGateway logs messages instead of contacting an SMS provider.
type DevGateway struct {
	log *slog.Logger
}

// NewDevGateway creates a logging SMS gateway for local development.
func NewDevGateway(log *slog.Logger) *DevGateway {
	if log == nil {
		log = slog.Default()
	}
	return &DevGateway{log: log}
}

// SendSMS implements Gateway.
func (g *DevGateway) SendSMS(ctx context.Context, to, body string) error {
	g.log.LogAttrs(ctx, slog.LevelInfo, "SMS (dev)",
		slog.String("to", to),
		slog.String("body", body),
	)
	return nil
}
