package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatchlab/notifykit/pkg/logger"
)

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithFormat(logger.FormatJSON),
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "notify")),
	)

	log.Info("delivery complete",
		logger.NotificationID("notif-1"),
		logger.UserID("user-1"),
		logger.Attempt(2),
	)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "delivery complete", record["msg"])
	assert.Equal(t, "notify", record["service"])
	assert.Equal(t, "notif-1", record["notification_id"])
	assert.Equal(t, "user-1", record["user_id"])
	assert.Equal(t, float64(2), record["attempt"])
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithLevel(slog.LevelWarn),
	)

	log.Debug("hidden")
	log.Info("hidden too")
	assert.Empty(t, buf.String())

	log.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestWithFormat_PanicsOnUnknown(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		logger.New(logger.WithFormat("xml"))
	})
}

func TestAttrs_EmptyValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, slog.Attr{}, logger.UserID(""))
	assert.Equal(t, slog.Attr{}, logger.NotificationID(""))
	assert.Equal(t, slog.Attr{}, logger.Category(""))

	assert.NotEqual(t, slog.Attr{}, logger.Error(errors.New("boom")))
	assert.NotEqual(t, slog.Attr{}, logger.Duration(time.Second))
}
