// Package push delivers notifications to mobile devices through a
// pluggable Provider. Device tokens come from the channel configuration
// ("token" or "tokens") with a fallback to the notification's
// "device_token" metadata entry.
package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
	"github.com/dispatchlab/notifykit/pkg/notification"
)

var (
	ErrTokenRequired = errors.New("push.errors.device_token_required")
	ErrSendFailed    = errors.New("push.errors.send_failed")
)

// Message is what a Provider delivers to one device.
type Message struct {
	Token     string
	Title     string
	Body      string
	Priority  notification.Priority
	ActionURL string
	Data      map[string]any
}

// Provider pushes a message to a single device. Implementations wrap a
// concrete gateway (APNs, FCM) or a development stand-in.
type Provider interface {
	Push(ctx context.Context, msg Message) error
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, msg Message) error

func (f ProviderFunc) Push(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Transport fans one notification out to all of the recipient's device
// tokens through the configured provider.
type Transport struct {
	provider Provider
}

var _ dispatch.Transport = (*Transport)(nil)

// New creates a push transport. A nil provider falls back to the
// development provider, which only logs.
func New(provider Provider) *Transport {
	if provider == nil {
		provider = NewDevProvider(slog.Default())
	}
	return &Transport{provider: provider}
}

// Send implements dispatch.Transport. Delivery succeeds when every device
// accepted the message; a partial failure reports the first error.
func (t *Transport) Send(ctx context.Context, payload dispatch.Payload) (dispatch.SendResult, error) {
	tokens := deviceTokens(payload)
	if len(tokens) == 0 {
		return dispatch.SendResult{}, fmt.Errorf("%w: notification %s has no device token", ErrTokenRequired, payload.Notification.ID)
	}

	n := payload.Notification
	for _, token := range tokens {
		err := t.provider.Push(ctx, Message{
			Token:     token,
			Title:     n.Title,
			Body:      n.Message,
			Priority:  n.Priority,
			ActionURL: n.ActionURL,
			Data:      n.Metadata,
		})
		if err != nil {
			return dispatch.SendResult{}, errors.Join(ErrSendFailed, err)
		}
	}

	return dispatch.SendResult{Success: true, MessageID: uuid.New().String()}, nil
}

// deviceTokens collects target tokens from the channel config, falling back
// to the notification metadata.
func deviceTokens(payload dispatch.Payload) []string {
	if raw, ok := payload.Channel.ConfigValue("tokens"); ok {
		switch v := raw.(type) {
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}
	if token := payload.Channel.ConfigString("token"); token != "" {
		return []string{token}
	}
	if token, ok := payload.Notification.Metadata["device_token"].(string); ok && token != "" {
		return []string{token}
	}
	return nil
}

// DevProvider logs pushes instead of contacting a gateway.
type DevProvider struct {
	log *slog.Logger
}

// NewDevProvider creates a logging push provider for local development.
func NewDevProvider(log *slog.Logger) *DevProvider {
	if log == nil {
		log = slog.Default()
	}
	return &DevProvider{log: log}
}

// Push implements Provider.
func (p *DevProvider) Push(ctx context.Context, msg Message) error {
	p.log.LogAttrs(ctx, slog.LevelInfo, "Push notification (dev)",
		slog.String("token", msg.Token),
		slog.String("title", msg.Title),
		slog.String("priority", msg.Priority.String()),
	)
	return nil
}
