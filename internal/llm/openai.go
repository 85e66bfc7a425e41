// Package llm adapts OpenAI-compatible chat completion endpoints to the
// single-prompt contract used by the compliance analyzer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"complianceanalyzer/internal/apperr"
	"complianceanalyzer/internal/log"
	"complianceanalyzer/internal/metrics"
)

const (
	DefaultModel   = openai.GPT3Dot5Turbo
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrMissingAPIKey is returned when no API key is configured
	ErrMissingAPIKey = errors.New("completion API key is required")
	// ErrEmptyCompletion is returned when the model answers without choices
	ErrEmptyCompletion = errors.New("completion returned no choices")
)

// Config holds the completion endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAI sends one system message per call and asks for a JSON object reply.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI builds a client from cfg. httpClient may be nil.
func NewOpenAI(cfg Config, httpClient *http.Client) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Complete submits prompt as the only message and returns the raw content of
// the first choice. A deadline overrun returns *apperr.TimeoutError.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || apperr.IsTimeout(err) {
			err = &apperr.TimeoutError{Limit: o.timeout, Err: err}
			metrics.CompletionDuration.WithLabelValues("timeout").Observe(elapsed.Seconds())
		} else {
			err = fmt.Errorf("completion request failed: %w", err)
			metrics.CompletionDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		}
		log.Logger.Error("completion failed", zap.String("model", o.model), zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 {
		metrics.CompletionDuration.WithLabelValues("error").Observe(elapsed.Seconds())
		return "", ErrEmptyCompletion
	}

	metrics.CompletionDuration.WithLabelValues("ok").Observe(elapsed.Seconds())
	log.Logger.Info("completion received",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Duration("duration", elapsed),
	)

	return resp.Choices[0].Message.Content, nil
}
