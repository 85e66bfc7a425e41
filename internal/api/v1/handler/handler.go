package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"complianceanalyzer/internal/apperr"
	"complianceanalyzer/internal/log"
	"complianceanalyzer/internal/model"
	"complianceanalyzer/internal/service"
	"complianceanalyzer/internal/util"
	"complianceanalyzer/pkg/response"
)

// PageAnalyzer runs the full pipeline for one target page.
type PageAnalyzer interface {
	AnalyzeURL(ctx context.Context, pageURL *url.URL) (*model.Report, error)
}

type Handler struct {
	analyzer PageAnalyzer
	maxSize  int64
	timeout  time.Duration
}

// New returns a Handler. maxSize and timeout only shape error messages; the
// limits themselves are enforced by the fetcher and the completion client.
// timeout is reported when a timeout error does not carry its own limit.
func New(analyzer PageAnalyzer, maxSize int64, timeout time.Duration) *Handler {
	return &Handler{
		analyzer: analyzer,
		maxSize:  maxSize,
		timeout:  timeout,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "ok"})
}

// AnalyzeWebpage serves GET /webpage/{url}, where url is a bare host and
// path without a scheme.
func (h *Handler) AnalyzeWebpage(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(param); err == nil {
		param = unescaped
	}
	if r.URL.RawQuery != "" {
		param += "?" + r.URL.RawQuery
	}

	target, err := util.ParseTarget(param)
	if err != nil {
		log.Logger.Warn("rejected webpage url", zap.String("param", param), zap.Error(err))
		response.Error(w, http.StatusBadRequest, "Invalid URL format", "Please provide a valid URL", "")
		return
	}

	report, err := h.analyzer.AnalyzeURL(r.Context(), target)
	if err != nil {
		h.writeError(w, target, err)
		return
	}

	log.Logger.Info("webpage analyzed",
		zap.String("url", report.URL),
		zap.Int("compliant", len(report.Analysis.ComplianceAnalysis.Compliant)),
		zap.Int("non_compliant", len(report.Analysis.ComplianceAnalysis.NonCompliant)),
	)
	response.Success(w, report)
}

// writeError maps a pipeline failure to its status and body.
func (h *Handler) writeError(w http.ResponseWriter, target *url.URL, err error) {
	fields := []zap.Field{zap.String("url", target.String()), zap.Error(err)}

	switch {
	case errors.Is(err, apperr.ErrResponseTooLarge):
		log.Logger.Warn("response too large", fields...)
		response.Error(w, http.StatusRequestEntityTooLarge, "Response too large",
			fmt.Sprintf("The webpage content exceeds the maximum allowed size of %s", humanize.IBytes(uint64(h.maxSize))), "")
		return
	case errors.Is(err, apperr.ErrRequestTimeout):
		limit := h.timeout
		var te *apperr.TimeoutError
		if errors.As(err, &te) && te.Limit > 0 {
			limit = te.Limit
		}
		log.Logger.Warn("request timeout", append(fields, zap.Duration("limit", limit))...)
		response.Error(w, http.StatusGatewayTimeout, "Request timeout",
			fmt.Sprintf("Request exceeded %d seconds timeout limit", int(limit.Seconds())), "")
		return
	}

	var stageErr *service.StageError
	if !errors.As(err, &stageErr) {
		if !errors.Is(err, apperr.ErrUnhandled) {
			err = fmt.Errorf("%w: %w", apperr.ErrUnhandled, err)
		}
		log.Logger.Error("unhandled error", zap.String("url", target.String()), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred", "")
		return
	}

	label := "Failed to process webpage content"
	if stageErr.Stage == service.StagePage {
		label = "Failed to fetch webpage content"
	}

	log.Logger.Error(label, append(fields, zap.String("stage", string(stageErr.Stage)))...)
	response.Error(w, http.StatusInternalServerError, label, stageErr.Err.Error(), stageErr.Err.Error())
}
