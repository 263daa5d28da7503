package config

import "time"

// App carries the engine-wide settings shared by the dispatcher, tracker,
// and logger. Component-specific settings live next to their components.
type App struct {
	// Environment is a free-form deployment label (development, staging,
	// production) surfaced in logs.
	Environment string `env:"APP_ENV" envDefault:"development"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// SendTimeout bounds each individual transport call.
	SendTimeout time.Duration `env:"DELIVERY_SEND_TIMEOUT" envDefault:"30s"`

	// MaxRetryAttempts is the per-channel retry budget for retried sends.
	MaxRetryAttempts int `env:"DELIVERY_MAX_RETRY_ATTEMPTS" envDefault:"3"`

	// TrackerMaxAttempts caps the attempt history kept per
	// (notification, channel) pair.
	TrackerMaxAttempts int `env:"TRACKER_MAX_ATTEMPTS" envDefault:"100"`

	// SchedulerInterval is how often scheduled notifications are
	// re-checked for delivery.
	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1m"`
}
