package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "wrapped deadline", err: fmt.Errorf("fetch: %w", context.DeadlineExceeded), want: true},
		{name: "url error with deadline", err: &url.Error{Op: "Get", URL: "https://example.com", Err: context.DeadlineExceeded}, want: true},
		{name: "net timeout", err: &url.Error{Op: "Get", URL: "https://example.com", Err: timeoutErr{}}, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "plain error", err: errors.New("connection refused"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTimeout(tt.err))
		})
	}
}

func TestTimeoutError(t *testing.T) {
	err := fmt.Errorf("analyze content: %w", &TimeoutError{Limit: 60 * time.Second, Err: context.DeadlineExceeded})

	assert.ErrorIs(t, err, ErrRequestTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrTransport)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 60*time.Second, te.Limit)
	assert.Equal(t, "analyze content: request timeout: exceeded 1m0s: context deadline exceeded", err.Error())
}
