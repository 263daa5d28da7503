package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dispatchlab/notifykit/pkg/dispatch"
	"github.com/dispatchlab/notifykit/pkg/notification"
)

// Event is the JSON envelope posted to webhook endpoints.
type Event struct {
	ID           string                    `json:"id"`
	Type         string                    `json:"type"`
	CreatedAt    time.Time                 `json:"created_at"`
	Notification notification.Notification `json:"notification"`
}

// EventTypeNotification is the type field of outbound notification events.
const EventTypeNotification = "notification.created"

// Transport posts notification events to HTTP endpoints.
// Safe for concurrent use once constructed.
type Transport struct {
	client    *http.Client
	secret    string
	userAgent string
	headers   map[string]string

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker

	breakerFailures  int
	breakerSuccesses int
	breakerRecovery  time.Duration
	breakerDisabled  bool
}

var _ dispatch.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient overrides the default pooled HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithSigningSecret enables HMAC-SHA256 signing of every payload.
func WithSigningSecret(secret string) Option {
	return func(t *Transport) { t.secret = secret }
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(t *Transport) { t.headers[key] = value }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *Transport) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

// WithCircuitBreaker tunes the per-endpoint breakers. Non-positive values
// keep the defaults (5 failures, 2 successes, 30s recovery).
func WithCircuitBreaker(failureThreshold, successThreshold int, recoveryTimeout time.Duration) Option {
	return func(t *Transport) {
		t.breakerFailures = failureThreshold
		t.breakerSuccesses = successThreshold
		t.breakerRecovery = recoveryTimeout
	}
}

// WithoutCircuitBreaker disables endpoint circuit breaking entirely.
func WithoutCircuitBreaker() Option {
	return func(t *Transport) { t.breakerDisabled = true }
}

// New creates a webhook transport. The default client pools connections and
// caps each request at 30 seconds; the dispatcher's send timeout still applies
// through the request context.
func New(opts ...Option) *Transport {
	t := &Transport{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "notifykit-webhook/1.0",
		headers:   make(map[string]string),
		breakers:  make(map[string]*CircuitBreaker),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send implements dispatch.Transport with a single HTTP attempt.
func (t *Transport) Send(ctx context.Context, payload dispatch.Payload) (dispatch.SendResult, error) {
	endpoint := strings.TrimSpace(payload.Channel.ConfigString("url"))
	if err := validateURL(endpoint); err != nil {
		// A bad URL will not get better with retries.
		return dispatch.SendResult{}, fmt.Errorf("%w: %w", dispatch.ErrPermanent, err)
	}

	breaker := t.breakerFor(endpoint)
	if breaker != nil && !breaker.Allow() {
		return dispatch.SendResult{}, fmt.Errorf("%w: %s", ErrCircuitOpen, endpoint)
	}

	event := Event{
		ID:           uuid.New().String(),
		Type:         EventTypeNotification,
		CreatedAt:    time.Now().UTC(),
		Notification: payload.Notification,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return dispatch.SendResult{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	err = t.post(ctx, endpoint, body)
	if breaker != nil {
		if err != nil {
			breaker.RecordFailure()
		} else {
			breaker.RecordSuccess()
		}
	}
	if err != nil {
		return dispatch.SendResult{}, err
	}
	return dispatch.SendResult{Success: true, MessageID: event.ID}, nil
}

func (t *Transport) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	if t.secret != "" {
		sig, err := SignPayload(t.secret, body)
		if err != nil {
			return err
		}
		for k, v := range sig.Headers() {
			req.Header.Set(k, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// 64KB cap keeps hostile endpoints from exhausting memory.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := fmt.Sprintf("endpoint returned status %d", resp.StatusCode)
	if len(respBody) > 0 {
		s := strings.ReplaceAll(string(respBody), "\n", " ")
		if len(s) > 200 {
			s = s[:200] + "..."
		}
		msg += ": " + s
	}

	if isPermanentStatus(resp.StatusCode) {
		return fmt.Errorf("%w: %s", dispatch.ErrPermanent, msg)
	}
	return fmt.Errorf("%w: %s", ErrRequestFailed, msg)
}

// breakerFor returns the circuit breaker guarding the endpoint, creating it
// on first use. Returns nil when breaking is disabled.
func (t *Transport) breakerFor(endpoint string) *CircuitBreaker {
	if t.breakerDisabled {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cb, ok := t.breakers[endpoint]
	if !ok {
		cb = NewCircuitBreaker(t.breakerFailures, t.breakerSuccesses, t.breakerRecovery)
		t.breakers[endpoint] = cb
	}
	return cb
}

func validateURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	// http/https only, keeps SSRF-ish schemes out.
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}

// isPermanentStatus reports whether a 4xx response should stop retries.
// 408, 425, and 429 are transient despite being client errors.
func isPermanentStatus(statusCode int) bool {
	if statusCode < 400 || statusCode >= 500 {
		return false
	}
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}
