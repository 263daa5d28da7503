package notification

import (
	"fmt"
	"regexp"
	"slices"
	"time"
)

// timeOfDayRegex matches 24-hour HH:mm values like "09:30" or "22:05".
var timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// DigestFrequency controls how often email digests are assembled.
type DigestFrequency string

const (
	DigestDaily  DigestFrequency = "daily"
	DigestWeekly DigestFrequency = "weekly"
	DigestNever  DigestFrequency = "never"
)

// Valid reports whether the frequency is one of the known values.
func (f DigestFrequency) Valid() bool {
	switch f {
	case DigestDaily, DigestWeekly, DigestNever:
		return true
	default:
		return false
	}
}

// CategoryPreference holds the recipient's settings for one notification
// category. When Enabled is true the channel allow-list must be non-empty.
type CategoryPreference struct {
	Category string        `json:"category"`
	Enabled  bool          `json:"enabled"`
	Channels []ChannelType `json:"channels"`
}

// QuietHours is a recipient-configured daily window during which only urgent,
// in-app delivery is permitted. Start and End are HH:mm values interpreted in
// Timezone; a window whose end precedes its start wraps midnight.
type QuietHours struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Timezone string `json:"timezone"`
}

// EmailDigest configures batched email summaries, independently of immediate
// delivery.
type EmailDigest struct {
	Enabled   bool            `json:"enabled"`
	Frequency DigestFrequency `json:"frequency"`
	Time      string          `json:"time"`
}

// RecipientPreferences aggregates a user's delivery preferences. Values are
// immutable: all With* methods return a new, re-validated copy.
type RecipientPreferences struct {
	UserID              string               `json:"user_id"`
	GlobalEnabled       bool                 `json:"global_enabled"`
	CategoryPreferences []CategoryPreference `json:"category_preferences,omitempty"`
	DefaultChannels     []ChannelType        `json:"default_channels"`
	QuietHours          *QuietHours          `json:"quiet_hours,omitempty"`
	EmailDigest         *EmailDigest         `json:"email_digest,omitempty"`
	Language            string               `json:"language"`
	Timezone            string               `json:"timezone"`
}

// PreferenceOption configures RecipientPreferences at construction time.
type PreferenceOption func(*RecipientPreferences)

// WithGlobalDisabled turns off all delivery for the user.
func WithGlobalDisabled() PreferenceOption {
	return func(p *RecipientPreferences) { p.GlobalEnabled = false }
}

// WithCategoryPreferences sets per-category settings.
func WithCategoryPreferences(prefs ...CategoryPreference) PreferenceOption {
	return func(p *RecipientPreferences) {
		p.CategoryPreferences = append([]CategoryPreference(nil), prefs...)
	}
}

// WithDefaultChannels sets the channels used for categories without an
// explicit preference entry.
func WithDefaultChannels(channels ...ChannelType) PreferenceOption {
	return func(p *RecipientPreferences) {
		p.DefaultChannels = append([]ChannelType(nil), channels...)
	}
}

// WithQuietHours sets the quiet-hours window.
func WithQuietHours(qh QuietHours) PreferenceOption {
	return func(p *RecipientPreferences) { p.QuietHours = &qh }
}

// WithEmailDigest sets the email digest settings.
func WithEmailDigest(d EmailDigest) PreferenceOption {
	return func(p *RecipientPreferences) { p.EmailDigest = &d }
}

// WithLanguage sets the recipient's language code.
func WithLanguage(lang string) PreferenceOption {
	return func(p *RecipientPreferences) { p.Language = lang }
}

// WithTimezone sets the recipient's IANA timezone.
func WithTimezone(tz string) PreferenceOption {
	return func(p *RecipientPreferences) { p.Timezone = tz }
}

// NewPreferences creates validated recipient preferences. Defaults: globally
// enabled, in-app delivery only, English, UTC.
func NewPreferences(userID string, opts ...PreferenceOption) (RecipientPreferences, error) {
	p := RecipientPreferences{
		UserID:          userID,
		GlobalEnabled:   true,
		DefaultChannels: []ChannelType{ChannelInApp},
		Language:        "en",
		Timezone:        "UTC",
	}

	for _, opt := range opts {
		opt(&p)
	}

	if err := p.validate(); err != nil {
		return RecipientPreferences{}, err
	}
	return p, nil
}

// DefaultPreferences returns the preferences substituted when a user has never
// written any: globally enabled, in-app delivery only.
func DefaultPreferences(userID string) RecipientPreferences {
	p, err := NewPreferences(userID)
	if err != nil {
		// Unreachable: the defaults above always validate.
		panic(err)
	}
	return p
}

func (p RecipientPreferences) validate() error {
	if p.UserID == "" {
		return ErrUserIDRequired
	}

	seen := make(map[string]struct{}, len(p.CategoryPreferences))
	for _, cp := range p.CategoryPreferences {
		if cp.Category == "" {
			return ErrCategoryRequired
		}
		if _, dup := seen[cp.Category]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, cp.Category)
		}
		seen[cp.Category] = struct{}{}

		if cp.Enabled && len(cp.Channels) == 0 {
			return fmt.Errorf("%w: %q", ErrCategoryChannelsEmpty, cp.Category)
		}
		for _, ch := range cp.Channels {
			if !ch.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidChannelType, ch)
			}
		}
	}

	for _, ch := range p.DefaultChannels {
		if !ch.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidDefaultChannel, ch)
		}
	}

	if p.QuietHours != nil {
		qh := p.QuietHours
		if qh.Start == "" || qh.End == "" || qh.Timezone == "" {
			return ErrQuietHoursIncomplete
		}
		if !timeOfDayRegex.MatchString(qh.Start) {
			return fmt.Errorf("%w: quiet hours start %q", ErrInvalidTimeFormat, qh.Start)
		}
		if !timeOfDayRegex.MatchString(qh.End) {
			return fmt.Errorf("%w: quiet hours end %q", ErrInvalidTimeFormat, qh.End)
		}
		if _, err := time.LoadLocation(qh.Timezone); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimezone, qh.Timezone)
		}
	}

	if p.EmailDigest != nil {
		if !p.EmailDigest.Frequency.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidDigestFrequency, p.EmailDigest.Frequency)
		}
		if p.EmailDigest.Time != "" && !timeOfDayRegex.MatchString(p.EmailDigest.Time) {
			return fmt.Errorf("%w: digest time %q", ErrInvalidTimeFormat, p.EmailDigest.Time)
		}
	}

	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimezone, p.Timezone)
		}
	}

	return nil
}

// CategoryPreference returns the explicit entry for the category, if any.
func (p RecipientPreferences) CategoryPreference(category string) (CategoryPreference, bool) {
	for _, cp := range p.CategoryPreferences {
		if cp.Category == category {
			cp.Channels = append([]ChannelType(nil), cp.Channels...)
			return cp, true
		}
	}
	return CategoryPreference{}, false
}

// CategoryEnabled reports whether delivery is allowed for the category.
// A category without an explicit entry is enabled by default; only an explicit
// Enabled:false entry disables it.
func (p RecipientPreferences) CategoryEnabled(category string) bool {
	cp, ok := p.CategoryPreference(category)
	if !ok {
		return true
	}
	return cp.Enabled
}

// ChannelsForCategory returns the channel allow-list for the category: the
// explicit per-category list when one exists, otherwise the default channels.
func (p RecipientPreferences) ChannelsForCategory(category string) []ChannelType {
	if cp, ok := p.CategoryPreference(category); ok && len(cp.Channels) > 0 {
		return cp.Channels
	}
	return append([]ChannelType(nil), p.DefaultChannels...)
}

// AllowsChannel reports whether the category's allow-list contains the channel.
func (p RecipientPreferences) AllowsChannel(category string, ch ChannelType) bool {
	return slices.Contains(p.ChannelsForCategory(category), ch)
}

// WithGlobalEnabled returns a copy with the global toggle set.
func (p RecipientPreferences) WithGlobalEnabled(enabled bool) RecipientPreferences {
	cp := p.clone()
	cp.GlobalEnabled = enabled
	return cp
}

// WithCategoryPreference returns a copy with the category entry replaced or
// appended. The copy is re-validated.
func (p RecipientPreferences) WithCategoryPreference(pref CategoryPreference) (RecipientPreferences, error) {
	cp := p.clone()
	replaced := false
	for i := range cp.CategoryPreferences {
		if cp.CategoryPreferences[i].Category == pref.Category {
			cp.CategoryPreferences[i] = pref
			replaced = true
			break
		}
	}
	if !replaced {
		cp.CategoryPreferences = append(cp.CategoryPreferences, pref)
	}
	if err := cp.validate(); err != nil {
		return RecipientPreferences{}, err
	}
	return cp, nil
}

// WithQuietHoursWindow returns a copy with the quiet-hours window replaced.
func (p RecipientPreferences) WithQuietHoursWindow(qh QuietHours) (RecipientPreferences, error) {
	cp := p.clone()
	cp.QuietHours = &qh
	if err := cp.validate(); err != nil {
		return RecipientPreferences{}, err
	}
	return cp, nil
}

// WithoutQuietHours returns a copy with no quiet-hours window.
func (p RecipientPreferences) WithoutQuietHours() RecipientPreferences {
	cp := p.clone()
	cp.QuietHours = nil
	return cp
}

// WithDefaults returns a copy with the default channel list replaced.
func (p RecipientPreferences) WithDefaults(channels ...ChannelType) (RecipientPreferences, error) {
	cp := p.clone()
	cp.DefaultChannels = append([]ChannelType(nil), channels...)
	if err := cp.validate(); err != nil {
		return RecipientPreferences{}, err
	}
	return cp, nil
}

// clone deep-copies the preference value so transformations never alias the
// original's slices.
func (p RecipientPreferences) clone() RecipientPreferences {
	cp := p
	cp.CategoryPreferences = make([]CategoryPreference, len(p.CategoryPreferences))
	for i, c := range p.CategoryPreferences {
		c.Channels = append([]ChannelType(nil), c.Channels...)
		cp.CategoryPreferences[i] = c
	}
	cp.DefaultChannels = append([]ChannelType(nil), p.DefaultChannels...)
	if p.QuietHours != nil {
		qh := *p.QuietHours
		cp.QuietHours = &qh
	}
	if p.EmailDigest != nil {
		d := *p.EmailDigest
		cp.EmailDigest = &d
	}
	return cp
}
