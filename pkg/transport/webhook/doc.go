// Package webhook delivers notifications as signed JSON events to
// HTTP endpoints. The destination URL comes from the channel
// configuration ("url").
//
// Each Send performs exactly one HTTP attempt; retry policy belongs to
// the dispatcher. Failures are classified: most 4xx responses wrap
// dispatch.ErrPermanent so the dispatcher stops retrying, while network
// errors, timeouts, and 5xx responses stay retryable. A per-endpoint
// circuit breaker stops hammering endpoints that fail consistently.
//
// Payloads are signed with HMAC-SHA256 bound to a timestamp, in the
// scheme used by Stripe-style webhook providers. Receivers verify with
// VerifySignature.
package webhook
