// Package netutil classifies outbound network failures for retry decisions
// and log fields.
package netutil

import (
	"context"
	"errors"
	"net/http"
)

// ShouldRetry reports whether repeating the call may succeed: timeouts,
// refused dials and Telegram flood control. Server errors are not retried
// because the request may already have been applied.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch Classify(err) {
	case KindTimeout, KindDial:
		return true
	case KindHTTP4xx:
		return StatusFromError(err) == http.StatusTooManyRequests
	}
	return false
}
