// Package apperr holds the failure taxonomy shared by the fetch, analysis and
// HTTP layers. Producers wrap these sentinels with %w; only the HTTP boundary
// classifies them.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var (
	// ErrInvalidURL is returned when the requested page is not a well-formed absolute URL
	ErrInvalidURL = errors.New("invalid URL format")
	// ErrResponseTooLarge is returned when a fetched body crosses the size ceiling
	ErrResponseTooLarge = errors.New("response exceeds maximum size")
	// ErrRequestTimeout is returned when a fetch or model call runs past its deadline
	ErrRequestTimeout = errors.New("request timeout")
	// ErrTransport is returned for DNS, connection and upstream status failures
	ErrTransport = errors.New("transport error")
	// ErrAnalysisParse is returned when the model output is not the expected JSON document
	ErrAnalysisParse = errors.New("analysis parse error")
	// ErrUnhandled marks failures outside the taxonomy above. The HTTP boundary
	// wraps anything it cannot classify with it
	ErrUnhandled = errors.New("unhandled error")
)

// IsTimeout reports whether err was caused by a context deadline or a
// network-level timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// TimeoutError records which limit a fetch or model call ran past. It
// matches ErrRequestTimeout with errors.Is.
type TimeoutError struct {
	Limit time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: exceeded %s: %v", ErrRequestTimeout, e.Limit, e.Err)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrRequestTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
