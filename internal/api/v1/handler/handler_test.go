package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"complianceanalyzer/internal/apperr"
	"complianceanalyzer/internal/fetcher"
	"complianceanalyzer/internal/log"
	"complianceanalyzer/internal/model"
	"complianceanalyzer/internal/service"
)

type fakeFetcher struct {
	bodies map[string][]byte
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, target fetcher.Target) ([]byte, error) {
	f.calls = append(f.calls, target.Name)
	if err, ok := f.errs[target.Name]; ok {
		return nil, err
	}
	return f.bodies[target.Name], nil
}

type fakeCompleter struct {
	content string
	err     error
	calls   int
}

func (c *fakeCompleter) Complete(context.Context, string) (string, error) {
	c.calls++
	return c.content, c.err
}

const modelAnswer = `{"structured_content":["Acme Treasury"],"compliance_analysis":{"compliant":["Avoids the word bank"],"non_compliant":[]}}`

func newTestServer(f *fakeFetcher, c *fakeCompleter) *httptest.Server {
	analyzer := service.NewAnalyzer(f, c, service.Options{
		ProxyBaseURL: "https://proxy.test",
		ProxyToken:   "tok",
		PolicyURL:    "https://policies.test/treasury",
		Timeout:      30 * time.Second,
	})
	h := New(analyzer, 5*1024*1024, 30*time.Second)

	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Get("/webpage/*", h.AnalyzeWebpage)
	return httptest.NewServer(r)
}

func get(t *testing.T, server *httptest.Server, path string) (int, map[string]json.RawMessage) {
	t.Helper()

	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func decodeError(t *testing.T, body map[string]json.RawMessage) model.ErrorResponse {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	var out model.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(&fakeFetcher{}, &fakeCompleter{})
	defer server.Close()

	status, body := get(t, server, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `"ok"`, string(body["status"]))
}

func TestAnalyzeWebpage(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{
		"page":   []byte("<h1>Acme Treasury</h1>"),
		"policy": []byte("<p>Do not call Acme a bank</p>"),
	}}
	c := &fakeCompleter{content: modelAnswer}
	server := newTestServer(f, c)
	defer server.Close()

	status, body := get(t, server, "/webpage/acme.test/treasury")
	require.Equal(t, http.StatusOK, status)

	assert.JSONEq(t, `"acme.test/treasury"`, string(body["url"]))
	assert.JSONEq(t, `{"structured_content":["Acme Treasury"],"compliance_analysis":{"compliant":["Avoids the word bank"],"non_compliant":[]}}`, string(body["analysis"]))
	assert.Equal(t, []string{"page", "policy"}, f.calls)
	assert.Equal(t, 1, c.calls)
}

func TestAnalyzeWebpageInvalidURL(t *testing.T) {
	f := &fakeFetcher{}
	server := newTestServer(f, &fakeCompleter{})
	defer server.Close()

	status, body := get(t, server, "/webpage/not%20a%20url")
	assert.Equal(t, http.StatusBadRequest, status)

	errBody := decodeError(t, body)
	assert.Equal(t, "Invalid URL format", errBody.Error)
	assert.Equal(t, "Please provide a valid URL", errBody.Message)
	assert.NotContains(t, body, "details")
	assert.Empty(t, f.calls)
}

func TestAnalyzeWebpageTooLarge(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{
		"page": fmt.Errorf("%w: read more than 5242880 bytes", apperr.ErrResponseTooLarge),
	}}
	c := &fakeCompleter{content: modelAnswer}
	server := newTestServer(f, c)
	defer server.Close()

	status, body := get(t, server, "/webpage/huge.test")
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)

	errBody := decodeError(t, body)
	assert.Equal(t, "Response too large", errBody.Error)
	assert.Equal(t, "The webpage content exceeds the maximum allowed size of 5.0 MiB", errBody.Message)
	assert.Equal(t, []string{"page"}, f.calls)
	assert.Zero(t, c.calls)
}

func TestAnalyzeWebpageTimeout(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{
		"page": fmt.Errorf("%w: context deadline exceeded", apperr.ErrRequestTimeout),
	}}
	server := newTestServer(f, &fakeCompleter{})
	defer server.Close()

	status, body := get(t, server, "/webpage/slow.test")
	assert.Equal(t, http.StatusGatewayTimeout, status)

	errBody := decodeError(t, body)
	assert.Equal(t, "Request timeout", errBody.Error)
	assert.Equal(t, "Request exceeded 30 seconds timeout limit", errBody.Message)
}

func TestAnalyzeWebpageModelTimeout(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"page": []byte("page"), "policy": []byte("policy")}}
	c := &fakeCompleter{err: &apperr.TimeoutError{Limit: 60 * time.Second, Err: context.DeadlineExceeded}}
	server := newTestServer(f, c)
	defer server.Close()

	status, body := get(t, server, "/webpage/example.com")
	assert.Equal(t, http.StatusGatewayTimeout, status)

	errBody := decodeError(t, body)
	assert.Equal(t, "Request timeout", errBody.Error)
	assert.Equal(t, "Request exceeded 60 seconds timeout limit", errBody.Message)
}

func TestAnalyzeWebpageFetchTimeoutLimit(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{
		"policy": &apperr.TimeoutError{Limit: 10 * time.Second, Err: context.DeadlineExceeded},
	}, bodies: map[string][]byte{"page": []byte("page")}}
	server := newTestServer(f, &fakeCompleter{})
	defer server.Close()

	status, body := get(t, server, "/webpage/example.com")
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "Request exceeded 10 seconds timeout limit", decodeError(t, body).Message)
}

func TestAnalyzeWebpagePageTransportError(t *testing.T) {
	f := &fakeFetcher{errs: map[string]error{
		"page": fmt.Errorf("%w: dial tcp: lookup proxy.test: no such host", apperr.ErrTransport),
	}}
	server := newTestServer(f, &fakeCompleter{})
	defer server.Close()

	status, body := get(t, server, "/webpage/example.com")
	assert.Equal(t, http.StatusInternalServerError, status)

	errBody := decodeError(t, body)
	assert.Equal(t, "Failed to fetch webpage content", errBody.Error)
	assert.Contains(t, errBody.Details, "no such host")
	assert.Contains(t, errBody.Message, "no such host")
}

func TestAnalyzeWebpagePolicyTransportError(t *testing.T) {
	f := &fakeFetcher{
		bodies: map[string][]byte{"page": []byte("<p>Acme</p>")},
		errs:   map[string]error{"policy": fmt.Errorf("%w: connection refused", apperr.ErrTransport)},
	}
	c := &fakeCompleter{content: modelAnswer}
	server := newTestServer(f, c)
	defer server.Close()

	status, body := get(t, server, "/webpage/example.com")
	assert.Equal(t, http.StatusInternalServerError, status)

	errBody := decodeError(t, body)
	assert.Equal(t, "Failed to process webpage content", errBody.Error)
	assert.Contains(t, errBody.Details, "connection refused")
	assert.Zero(t, c.calls, "model must not be called")
}

func TestAnalyzeWebpageParseError(t *testing.T) {
	f := &fakeFetcher{bodies: map[string][]byte{"page": []byte("page"), "policy": []byte("policy")}}
	server := newTestServer(f, &fakeCompleter{content: "I cannot help with that"})
	defer server.Close()

	status, body := get(t, server, "/webpage/example.com")
	assert.Equal(t, http.StatusInternalServerError, status)

	errBody := decodeError(t, body)
	assert.Equal(t, "Failed to process webpage content", errBody.Error)
	assert.Contains(t, errBody.Details, apperr.ErrAnalysisParse.Error())
}

type failingAnalyzer struct{ err error }

func (a failingAnalyzer) AnalyzeURL(context.Context, *url.URL) (*model.Report, error) {
	return nil, a.err
}

func TestAnalyzeWebpageUnhandledError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	original := log.Logger
	log.Logger = zap.New(core)
	t.Cleanup(func() { log.Logger = original })

	h := New(failingAnalyzer{err: errors.New("boom")}, 1024, time.Second)

	r := chi.NewRouter()
	r.Get("/webpage/*", h.AnalyzeWebpage)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webpage/example.com", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error","message":"An unexpected error occurred"}`, rec.Body.String())

	entries := logs.FilterMessage("unhandled error").All()
	require.Len(t, entries, 1)
	logged, ok := entries[0].ContextMap()["error"].(string)
	require.True(t, ok)
	assert.Equal(t, "unhandled error: boom", logged)
}
