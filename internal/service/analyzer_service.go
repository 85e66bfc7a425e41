package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"complianceanalyzer/internal/apperr"
	"complianceanalyzer/internal/fetcher"
	"complianceanalyzer/internal/log"
	"complianceanalyzer/internal/model"
	"complianceanalyzer/internal/util/sanitizer"
)

// Fetcher performs one bounded GET.
type Fetcher interface {
	Fetch(ctx context.Context, target fetcher.Target) ([]byte, error)
}

// Completer submits a prompt to the completion model and returns the raw
// JSON-bearing text of its answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Stage identifies which half of the pipeline failed.
type Stage string

const (
	StagePage     Stage = "page"
	StageAnalysis Stage = "analysis"
)

// StageError tags a pipeline failure with the stage it came from.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options carries the fixed, process-wide settings of an Analyzer.
type Options struct {
	ProxyBaseURL string
	ProxyToken   string
	PolicyURL    string
	Timeout      time.Duration
}

// Analyzer runs the fetch, sanitize and analyze pipeline. It holds no
// per-request state and is safe for concurrent use.
type Analyzer struct {
	fetcher   Fetcher
	completer Completer
	opts      Options
}

func NewAnalyzer(f Fetcher, c Completer, opts Options) *Analyzer {
	return &Analyzer{
		fetcher:   f,
		completer: c,
		opts:      opts,
	}
}

// PageTarget returns the rendering-proxy request for pageURL.
func (a *Analyzer) PageTarget(pageURL *url.URL) fetcher.Target {
	return a.proxyTarget("page", pageURL.String())
}

// PolicyTarget returns the rendering-proxy request for the compliance policy
// document.
func (a *Analyzer) PolicyTarget() fetcher.Target {
	return a.proxyTarget("policy", a.opts.PolicyURL)
}

func (a *Analyzer) proxyTarget(name, rawURL string) fetcher.Target {
	headers := map[string]string{}
	if a.opts.ProxyToken != "" {
		headers["Authorization"] = "Bearer " + a.opts.ProxyToken
	}

	return fetcher.Target{
		Name:    name,
		BaseURL: a.opts.ProxyBaseURL,
		Path:    "/" + rawURL,
		Headers: headers,
		Timeout: a.opts.Timeout,
	}
}

// AnalyzeURL fetches and sanitizes pageURL, then analyzes it. Failures are
// returned as *StageError.
func (a *Analyzer) AnalyzeURL(ctx context.Context, pageURL *url.URL) (*model.Report, error) {
	pageText, err := a.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, &StageError{Stage: StagePage, Err: err}
	}

	analysis, err := a.Analyze(ctx, pageText)
	if err != nil {
		return nil, &StageError{Stage: StageAnalysis, Err: err}
	}

	return &model.Report{
		URL:      strings.TrimPrefix(pageURL.String(), "https://"),
		Analysis: *analysis,
	}, nil
}

// FetchPage retrieves pageURL through the rendering proxy and sanitizes it.
func (a *Analyzer) FetchPage(ctx context.Context, pageURL *url.URL) (string, error) {
	raw, err := a.fetcher.Fetch(ctx, a.PageTarget(pageURL))
	if err != nil {
		return "", fmt.Errorf("fetch webpage: %w", err)
	}

	text := sanitizer.Clean(string(raw))
	log.Logger.Debug("sanitized webpage",
		zap.String("url", pageURL.String()),
		zap.Int("raw_length", len(raw)),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}

// Analyze fetches the current policy document and asks the model to compare
// pageText against it. pageText must already be sanitized.
func (a *Analyzer) Analyze(ctx context.Context, pageText string) (*model.AnalysisResult, error) {
	rawPolicy, err := a.fetcher.Fetch(ctx, a.PolicyTarget())
	if err != nil {
		return nil, fmt.Errorf("fetch compliance policies: %w", err)
	}

	policy := sanitizer.Clean(string(rawPolicy))
	prompt := BuildPrompt(policy, pageText)

	content, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze content: %w", err)
	}

	result, err := ParseAnalysis(content)
	if err != nil {
		log.Logger.Warn("unexpected model output", zap.Int("content_length", len(content)), zap.Error(err))
		return nil, err
	}

	return result, nil
}

// analysisDocument mirrors model.AnalysisResult with pointers so absent keys
// can be told apart from empty arrays.
type analysisDocument struct {
	StructuredContent  *[]json.RawMessage `json:"structured_content"`
	ComplianceAnalysis *struct {
		Compliant    *[]string `json:"compliant"`
		NonCompliant *[]string `json:"non_compliant"`
	} `json:"compliance_analysis"`
}

// ParseAnalysis decodes the model answer. Invalid JSON, a missing key or a
// non-string policy label wraps apperr.ErrAnalysisParse. Statements may be any
// JSON value. Policy labels are deduplicated in order.
func ParseAnalysis(content string) (*model.AnalysisResult, error) {
	var doc analysisDocument
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrAnalysisParse, err)
	}

	switch {
	case doc.StructuredContent == nil:
		return nil, fmt.Errorf("%w: missing structured_content", apperr.ErrAnalysisParse)
	case doc.ComplianceAnalysis == nil:
		return nil, fmt.Errorf("%w: missing compliance_analysis", apperr.ErrAnalysisParse)
	case doc.ComplianceAnalysis.Compliant == nil:
		return nil, fmt.Errorf("%w: missing compliance_analysis.compliant", apperr.ErrAnalysisParse)
	case doc.ComplianceAnalysis.NonCompliant == nil:
		return nil, fmt.Errorf("%w: missing compliance_analysis.non_compliant", apperr.ErrAnalysisParse)
	}

	return &model.AnalysisResult{
		StructuredContent: nonNil(*doc.StructuredContent),
		ComplianceAnalysis: model.ComplianceAnalysis{
			Compliant:    nonNil(lo.Uniq(*doc.ComplianceAnalysis.Compliant)),
			NonCompliant: nonNil(lo.Uniq(*doc.ComplianceAnalysis.NonCompliant)),
		},
	}, nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
