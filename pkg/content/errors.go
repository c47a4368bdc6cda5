package content

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ClientUnavailableError is returned when a content client cannot be built or
// selected because its project or dataset configuration is missing.
type ClientUnavailableError struct {
	Client string
	Reason string
}

func (e *ClientUnavailableError) Error() string {
	return fmt.Sprintf("content client %q unavailable: %s", e.Client, e.Reason)
}

// FetchError wraps a failed query against the content API.
type FetchError struct {
	Client     string
	Operation  string
	StatusCode int
	Body       string
	Err        error
	Retryable  bool
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("content client %q %s failed: HTTP %d: %s", e.Client, e.Operation, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("content client %q %s failed: HTTP %d", e.Client, e.Operation, e.StatusCode)
	default:
		return fmt.Sprintf("content client %q %s failed: %v", e.Client, e.Operation, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SubscriptionError reports a failure of the mutation listener.
type SubscriptionError struct {
	Client   string
	Attempts int
	Err      error
}

func (e *SubscriptionError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("content client %q listen failed after %d attempts: %v", e.Client, e.Attempts, e.Err)
	}
	return fmt.Sprintf("content client %q listen failed: %v", e.Client, e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}

// ErrChannelClosed is reported when the content API ends a listen stream on
// purpose. Listeners must not reconnect after it.
var ErrChannelClosed = errors.New("listen channel closed by server")

// errStreamInterrupted marks a listen stream that ended without a disconnect event.
var errStreamInterrupted = errors.New("listen stream interrupted")

func newFetchError(client, op string, err error) *FetchError {
	return &FetchError{
		Client:    client,
		Operation: op,
		Err:       err,
		Retryable: isRetryableError(err),
	}
}

func isRetryableStatus(code int) bool {
	return code >= 500 || code == 429
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Retryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errStreamInterrupted)
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return isRetryableError(err)
}
