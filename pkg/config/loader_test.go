package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchlab/notifykit/pkg/config"
)

type deliveryConfig struct {
	Timeout  time.Duration `env:"TEST_DELIVERY_TIMEOUT" envDefault:"15s"`
	Retries  int           `env:"TEST_DELIVERY_RETRIES" envDefault:"3"`
	Channels []string      `env:"TEST_DELIVERY_CHANNELS" envSeparator:","`
}

type requiredConfig struct {
	Token string `env:"TEST_REQUIRED_TOKEN,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when env is empty", func(t *testing.T) {
		os.Unsetenv("TEST_DELIVERY_TIMEOUT")
		os.Unsetenv("TEST_DELIVERY_RETRIES")
		os.Unsetenv("TEST_DELIVERY_CHANNELS")
		config.ResetCache()

		var cfg deliveryConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 15*time.Second, cfg.Timeout)
		assert.Equal(t, 3, cfg.Retries)
		assert.Empty(t, cfg.Channels)
	})

	t.Run("env overrides defaults", func(t *testing.T) {
		t.Setenv("TEST_DELIVERY_TIMEOUT", "5s")
		t.Setenv("TEST_DELIVERY_CHANNELS", "email,push")
		config.ResetCache()

		var cfg deliveryConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, []string{"email", "push"}, cfg.Channels)
	})

	t.Run("cached per type", func(t *testing.T) {
		t.Setenv("TEST_DELIVERY_RETRIES", "7")
		config.ResetCache()

		var first deliveryConfig
		require.NoError(t, config.Load(&first))
		assert.Equal(t, 7, first.Retries)

		// A later env change is invisible without ForceReload.
		t.Setenv("TEST_DELIVERY_RETRIES", "9")
		var second deliveryConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, 7, second.Retries)

		var third deliveryConfig
		require.NoError(t, config.ForceReload(&third))
		assert.Equal(t, 9, third.Retries)
	})

	t.Run("missing required field errors", func(t *testing.T) {
		os.Unsetenv("TEST_REQUIRED_TOKEN")
		config.ResetCache()

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		require.ErrorIs(t, config.Load[deliveryConfig](nil), config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_TOKEN")
	config.ResetCache()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, ".env.base")
	require.NoError(t, os.WriteFile(base, []byte("TEST_ENVFILE_A=base\nTEST_ENVFILE_B=base\n"), 0644))
	override := filepath.Join(dir, ".env.override")
	require.NoError(t, os.WriteFile(override, []byte("TEST_ENVFILE_B=override\n"), 0644))

	t.Setenv("TEST_ENVFILE_A", "")
	t.Setenv("TEST_ENVFILE_B", "")

	require.NoError(t, config.LoadEnv(base, override))
	assert.Equal(t, "base", os.Getenv("TEST_ENVFILE_A"))
	assert.Equal(t, "override", os.Getenv("TEST_ENVFILE_B"), "later files win")

	require.Error(t, config.LoadEnv(filepath.Join(dir, "missing.env")))
	assert.Panics(t, func() { config.MustLoadEnv(filepath.Join(dir, "missing.env")) })
}

func TestAppDefaults(t *testing.T) {
	config.ResetCache()

	var app config.App
	require.NoError(t, config.Load(&app))
	assert.Equal(t, "development", app.Environment)
	assert.Equal(t, "json", app.LogFormat)
	assert.Equal(t, 30*time.Second, app.SendTimeout)
	assert.Equal(t, 3, app.MaxRetryAttempts)
	assert.Equal(t, 100, app.TrackerMaxAttempts)
	assert.Equal(t, time.Minute, app.SchedulerInterval)
}
