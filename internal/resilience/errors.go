package resilience

import (
	"context"
	"errors"
	"net"

	"github.com/rotisserie/eris"
)

// Retryable error classes. Completion adapters wrap provider failures in
// one of these; anything else is fatal on the first attempt.
var (
	ErrRateLimited = eris.New("rate limited")
	ErrTimeout     = eris.New("request timed out")
)

// IsRetryable reports whether err is rate limiting or a timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return eris.Is(err, ErrRateLimited) || eris.Is(err, ErrTimeout)
}

// Classify maps an HTTP status code and transport error onto the retryable
// classes. A status of 0 means no response was received. Errors that are
// neither rate limiting nor timeouts are returned unchanged.
func Classify(statusCode int, err error) error {
	if err == nil {
		return nil
	}
	if IsRetryable(err) {
		return err
	}

	switch statusCode {
	case 429:
		return eris.Wrap(ErrRateLimited, err.Error())
	case 408, 504:
		return eris.Wrap(ErrTimeout, err.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return eris.Wrap(ErrTimeout, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return eris.Wrap(ErrTimeout, err.Error())
	}
	return err
}
