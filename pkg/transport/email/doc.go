// Package email delivers notifications over transactional email via
// Postmark. The recipient address is resolved from the channel
// configuration ("address") with a fallback to the notification's
// "email" metadata entry.
//
// A file-backed DevTransport is provided for local development so the
// full delivery pipeline can be exercised without a Postmark account.
package email
