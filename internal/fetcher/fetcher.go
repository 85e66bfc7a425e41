// Package fetcher performs single-shot HTTP GETs with an enforced response
// size ceiling and deadline. Both the rendering-proxy page fetch and the
// compliance policy fetch go through it.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"complianceanalyzer/internal/apperr"
	"complianceanalyzer/internal/log"
	"complianceanalyzer/internal/metrics"
)

const (
	DefaultMaxSize = 5 * 1024 * 1024
	DefaultTimeout = 30 * time.Second

	readChunkSize = 32 * 1024
)

// Target describes one outbound request. It is a value type and is never
// mutated after construction.
type Target struct {
	// Name labels the target in logs and metrics, e.g. "page" or "policy".
	Name    string
	BaseURL string
	Path    string
	Headers map[string]string
	Timeout time.Duration
}

// URL joins the base URL and path without cleaning the path, so proxy paths
// such as "/https://example.com" survive intact.
func (t Target) URL() string {
	return strings.TrimSuffix(t.BaseURL, "/") + t.Path
}

type Fetcher struct {
	client  *http.Client
	maxSize int64
}

type Option func(*Fetcher)

// WithHTTPClient swaps the underlying client. Per-request deadlines still come
// from Target.Timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// New returns a Fetcher that rejects bodies larger than maxSize bytes.
// A non-positive maxSize falls back to DefaultMaxSize.
func New(maxSize int64, opts ...Option) *Fetcher {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	f := &Fetcher{
		client:  &http.Client{},
		maxSize: maxSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// MaxSize returns the configured response ceiling in bytes.
func (f *Fetcher) MaxSize() int64 {
	return f.maxSize
}

// Fetch issues exactly one GET for target and returns the complete body.
// Failures wrap apperr.ErrResponseTooLarge, apperr.ErrRequestTimeout or
// apperr.ErrTransport; partial bodies are never returned.
func (f *Fetcher) Fetch(ctx context.Context, target Target) ([]byte, error) {
	timeout := target.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := log.Logger.With(
		zap.String("target", target.Name),
		zap.String("url", target.URL()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL(), nil)
	if err != nil {
		return nil, f.fail(logger, target, "transport", fmt.Errorf("%w: %v", apperr.ErrTransport, err))
	}
	for key, value := range target.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.fail(logger, target, "", classify(ctx, err, timeout))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Debug("failed to close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, f.fail(logger, target, "transport",
			fmt.Errorf("%w: unexpected status code: %d", apperr.ErrTransport, resp.StatusCode))
	}

	if resp.ContentLength > f.maxSize {
		return nil, f.fail(logger, target, "too_large",
			fmt.Errorf("%w: declared length %d exceeds %d bytes", apperr.ErrResponseTooLarge, resp.ContentLength, f.maxSize))
	}

	body, err := readBounded(resp.Body, f.maxSize)
	if err != nil {
		if !isTooLarge(err) {
			err = classify(ctx, err, timeout)
		}
		return nil, f.fail(logger, target, "", err)
	}

	metrics.FetchTotal.WithLabelValues(target.Name, "ok").Inc()
	metrics.FetchBytes.WithLabelValues(target.Name).Observe(float64(len(body)))
	logger.Info("fetched content",
		zap.Int("content_length", len(body)),
		zap.Int("status_code", resp.StatusCode),
	)

	return body, nil
}

// readBounded accumulates r while counting bytes and stops the moment the
// running total passes max. The caller closes the body, which tears down the
// connection because it was not drained.
func readBounded(r io.Reader, max int64) ([]byte, error) {
	var (
		buf   bytes.Buffer
		total int64
		chunk = make([]byte, readChunkSize)
	)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			total += int64(n)
			if total > max {
				return nil, fmt.Errorf("%w: read more than %d bytes", apperr.ErrResponseTooLarge, max)
			}
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// classify maps a client or body-read error onto the taxonomy.
func classify(ctx context.Context, err error, limit time.Duration) error {
	if ctx.Err() == context.DeadlineExceeded || apperr.IsTimeout(err) {
		return &apperr.TimeoutError{Limit: limit, Err: err}
	}
	return fmt.Errorf("%w: %v", apperr.ErrTransport, err)
}

func (f *Fetcher) fail(logger *zap.Logger, target Target, outcome string, err error) error {
	if outcome == "" {
		outcome = outcomeOf(err)
	}
	metrics.FetchTotal.WithLabelValues(target.Name, outcome).Inc()
	logger.Error("fetch failed", zap.String("outcome", outcome), zap.Error(err))
	return err
}
