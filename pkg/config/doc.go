// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// values come from the process environment, optionally seeded from one or
// more .env files, and are parsed into plain structs via `env` field tags.
// Each configuration type is parsed once per process and cached; tests can
// call ResetCache or ForceReload when they mutate the environment.
//
// Component packages declare their own config structs (see
// transport/email.Config and tracker.RedisConfig); App in this package
// carries the engine-wide settings.
package config
