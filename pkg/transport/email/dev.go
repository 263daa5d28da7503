package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
)

// DevTransport implements dispatch.Transport for local development.
// It saves each notification as an HTML file plus a JSON metadata file
// instead of calling an email service.
type DevTransport struct {
	dir string
}

var _ dispatch.Transport = (*DevTransport)(nil)

// NewDevTransport creates a development transport that writes emails to
// disk. The directory is created on first send if it doesn't exist.
func NewDevTransport(dir string) *DevTransport {
	return &DevTransport{dir: dir}
}

type devMetadata struct {
	Timestamp      string `json:"timestamp"`
	NotificationID string `json:"notification_id"`
	SendTo         string `json:"send_to"`
	Subject        string `json:"subject"`
	Category       string `json:"category,omitempty"`
}

// Send writes the rendered email and its metadata to the configured
// directory and reports the base filename as the message ID.
func (d *DevTransport) Send(ctx context.Context, payload dispatch.Payload) (dispatch.SendResult, error) {
	to, err := recipient(payload)
	if err != nil {
		return dispatch.SendResult{}, err
	}
	body, err := renderBody(payload.Notification)
	if err != nil {
		return dispatch.SendResult{}, err
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return dispatch.SendResult{}, fmt.Errorf("%w: failed to create directory: %v", ErrSendFailed, err)
	}

	now := time.Now()
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(payload.Notification.Title))

	htmlPath := filepath.Join(d.dir, base+".html")
	if err := os.WriteFile(htmlPath, []byte(body), 0644); err != nil {
		return dispatch.SendResult{}, fmt.Errorf("%w: failed to write HTML file: %v", ErrSendFailed, err)
	}

	meta := devMetadata{
		Timestamp:      now.Format(time.RFC3339),
		NotificationID: payload.Notification.ID,
		SendTo:         to,
		Subject:        payload.Notification.Title,
		Category:       payload.Notification.Category,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return dispatch.SendResult{}, fmt.Errorf("%w: failed to marshal metadata: %v", ErrSendFailed, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), data, 0644); err != nil {
		return dispatch.SendResult{}, fmt.Errorf("%w: failed to write JSON file: %v", ErrSendFailed, err)
	}

	return dispatch.SendResult{Success: true, MessageID: base}, nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename converts a string into a safe, lowercase filename.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "notification"
	}
	return strings.ToLower(s)
}
