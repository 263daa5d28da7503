package dispatch

import "errors"

var (
	ErrNoTransport        = errors.New("no transport registered for channel")
	ErrUnsupportedChannel = errors.New("unsupported channel type")
	ErrTransportFailure   = errors.New("transport reported failure")

	// ErrPermanent marks a transport error that retrying cannot fix, such
	// as a webhook endpoint answering 4xx. Transports wrap it to stop the
	// retry loop early.
	ErrPermanent = errors.New("permanent delivery failure")
)

// errRequestTimeout is the error text propagated into results when a
// transport call exceeds the send timeout.
const errRequestTimeout = "Request timeout"
