package notification

import (
	"encoding/json"
	"fmt"
	"maps"
)

// ChannelType identifies a delivery mechanism. The set is closed; dispatchers
// switch exhaustively over it.
type ChannelType string

const (
	ChannelInApp   ChannelType = "in_app"
	ChannelEmail   ChannelType = "email"
	ChannelPush    ChannelType = "push"
	ChannelSMS     ChannelType = "sms"
	ChannelWebhook ChannelType = "webhook"
)

// ChannelTypes returns all known channel types.
func ChannelTypes() []ChannelType {
	return []ChannelType{ChannelInApp, ChannelEmail, ChannelPush, ChannelSMS, ChannelWebhook}
}

// Valid reports whether the channel type belongs to the closed enumeration.
func (c ChannelType) Valid() bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelPush, ChannelSMS, ChannelWebhook:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the channel type.
func (c ChannelType) String() string {
	return string(c)
}

// ChannelDescriptor describes one delivery channel of a notification.
// Descriptors are immutable: create them via NewChannel and derive variants
// with the With* methods, which return copies.
type ChannelDescriptor struct {
	typ     ChannelType
	enabled bool
	config  map[string]any
}

// ChannelOption configures a ChannelDescriptor at construction time.
type ChannelOption func(*ChannelDescriptor)

// WithChannelDisabled creates the channel in a disabled state.
// Channels are enabled by default.
func WithChannelDisabled() ChannelOption {
	return func(c *ChannelDescriptor) {
		c.enabled = false
	}
}

// WithChannelConfig sets channel-specific configuration. The map is copied so
// later mutation of the argument cannot leak into the descriptor.
func WithChannelConfig(config map[string]any) ChannelOption {
	return func(c *ChannelDescriptor) {
		if len(config) > 0 {
			c.config = maps.Clone(config)
		}
	}
}

// NewChannel creates a validated channel descriptor.
// Webhook channels with a config must carry a non-empty "url" entry; this is
// checked here so a misconfigured webhook fails before any routing or
// delivery attempt.
func NewChannel(typ ChannelType, opts ...ChannelOption) (ChannelDescriptor, error) {
	if !typ.Valid() {
		return ChannelDescriptor{}, fmt.Errorf("%w: %q", ErrInvalidChannelType, typ)
	}

	ch := ChannelDescriptor{typ: typ, enabled: true}
	for _, opt := range opts {
		opt(&ch)
	}

	if typ == ChannelWebhook && ch.config != nil {
		url, _ := ch.config["url"].(string)
		if url == "" {
			return ChannelDescriptor{}, ErrWebhookURLRequired
		}
	}

	return ch, nil
}

// MustNewChannel creates a channel descriptor and panics on invalid input.
// Intended for static channel sets known at compile time.
func MustNewChannel(typ ChannelType, opts ...ChannelOption) ChannelDescriptor {
	ch, err := NewChannel(typ, opts...)
	if err != nil {
		panic(err)
	}
	return ch
}

// Type returns the channel type.
func (c ChannelDescriptor) Type() ChannelType { return c.typ }

// Enabled reports whether the channel participates in delivery.
func (c ChannelDescriptor) Enabled() bool { return c.enabled }

// ConfigValue returns a channel-specific config entry.
func (c ChannelDescriptor) ConfigValue(key string) (any, bool) {
	v, ok := c.config[key]
	return v, ok
}

// ConfigString returns a channel-specific config entry as a string,
// or "" when the entry is absent or not a string.
func (c ChannelDescriptor) ConfigString(key string) string {
	s, _ := c.config[key].(string)
	return s
}

// Config returns a copy of the channel configuration.
func (c ChannelDescriptor) Config() map[string]any {
	if c.config == nil {
		return nil
	}
	return maps.Clone(c.config)
}

// WithEnabled returns a copy of the descriptor with the enabled flag set.
func (c ChannelDescriptor) WithEnabled(enabled bool) ChannelDescriptor {
	c.enabled = enabled
	return c
}

type channelJSON struct {
	Type    ChannelType    `json:"type"`
	Enabled bool           `json:"enabled"`
	Config  map[string]any `json:"config,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c ChannelDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(channelJSON{Type: c.typ, Enabled: c.enabled, Config: c.config})
}

// UnmarshalJSON implements json.Unmarshaler, rejecting unknown channel types.
func (c *ChannelDescriptor) UnmarshalJSON(data []byte) error {
	var raw channelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannelType, raw.Type)
	}
	c.typ = raw.Type
	c.enabled = raw.Enabled
	c.config = raw.Config
	return nil
}
