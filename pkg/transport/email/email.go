package email

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/mrz1836/postmark"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
	"github.com/dispatchlab/notifykit/pkg/notification"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// sender is the slice of the Postmark client the transport relies on.
type sender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Transport sends notifications through Postmark's transactional API.
type Transport struct {
	client sender
	config Config
}

var _ dispatch.Transport = (*Transport)(nil)

// New creates a Postmark-backed transport. Both tokens and a valid sender
// address are required so a misconfigured service fails at startup rather
// than on the first delivery.
func New(cfg Config) (*Transport, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.ReplyToEmail != "" && !emailRegex.MatchString(cfg.ReplyToEmail) {
		return nil, fmt.Errorf("%w: ReplyToEmail must be a valid email address", ErrInvalidConfig)
	}
	return &Transport{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

// MustNew creates a Postmark transport that panics on invalid config.
func MustNew(cfg Config) *Transport {
	t, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return t
}

// Send implements dispatch.Transport. Tracking is enabled for opens and
// HTML link clicks only to avoid privacy issues with plain text.
func (t *Transport) Send(ctx context.Context, payload dispatch.Payload) (dispatch.SendResult, error) {
	to, err := recipient(payload)
	if err != nil {
		return dispatch.SendResult{}, err
	}

	body, err := renderBody(payload.Notification)
	if err != nil {
		return dispatch.SendResult{}, err
	}

	replyTo := t.config.ReplyToEmail
	if replyTo == "" {
		replyTo = t.config.SenderEmail
	}

	resp, err := t.client.SendEmail(ctx, postmark.Email{
		From:       t.config.SenderEmail,
		ReplyTo:    replyTo,
		To:         to,
		Subject:    payload.Notification.Title,
		Tag:        payload.Notification.Category,
		HTMLBody:   body,
		TextBody:   payload.Notification.Message,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return dispatch.SendResult{}, errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return dispatch.SendResult{}, errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return dispatch.SendResult{Success: true, MessageID: resp.MessageID}, nil
}

// recipient resolves the destination address from the channel config,
// falling back to the notification's "email" metadata entry.
func recipient(payload dispatch.Payload) (string, error) {
	to := strings.TrimSpace(payload.Channel.ConfigString("address"))
	if to == "" {
		if v, ok := payload.Notification.Metadata["email"].(string); ok {
			to = strings.TrimSpace(v)
		}
	}
	if to == "" {
		return "", fmt.Errorf("%w: notification %s has no email address", ErrRecipientRequired, payload.Notification.ID)
	}
	if !emailRegex.MatchString(to) {
		return "", fmt.Errorf("%w: %q is not a valid email address", ErrRecipientRequired, to)
	}
	return to, nil
}

var bodyTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>{{.Title}}</h2>
  <p>{{.Message}}</p>
  {{if .ActionURL}}<p><a href="{{.ActionURL}}">View details</a></p>{{end}}
</body>
</html>
`))

func renderBody(n notification.Notification) (string, error) {
	var sb strings.Builder
	if err := bodyTemplate.Execute(&sb, n); err != nil {
		return "", errors.Join(ErrSendFailed, err)
	}
	return sb.String(), nil
}
