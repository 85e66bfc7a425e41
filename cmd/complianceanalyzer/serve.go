package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"complianceanalyzer/internal/api/v1/handler"
	"complianceanalyzer/internal/api/v1/router"
	"complianceanalyzer/internal/config"
	"complianceanalyzer/internal/debug"
	"complianceanalyzer/internal/fetcher"
	"complianceanalyzer/internal/llm"
	"complianceanalyzer/internal/log"
	"complianceanalyzer/internal/service"
)

const pprofAddr = "localhost:6060"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the compliance analyzer api server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "8080", "api listen port")
	serveCmd.Flags().String("metrics-port", "8081", "metrics listen port")
}

// newAnalyzer wires f and the completion client into the pipeline.
func newAnalyzer(cfg *config.Config, f *fetcher.Fetcher) (*service.Analyzer, error) {
	completer, err := llm.NewOpenAI(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.ModelTimeout,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("setting up completion client: %w", err)
	}

	return service.NewAnalyzer(f, completer, service.Options{
		ProxyBaseURL: cfg.ProxyBaseURL,
		ProxyToken:   cfg.ProxyToken,
		PolicyURL:    cfg.PolicyURL,
		Timeout:      cfg.RequestTimeout,
	}), nil
}

func serve(ctx context.Context) error {
	f := fetcher.New(cfg.MaxResponseSize)

	analyzer, err := newAnalyzer(cfg, f)
	if err != nil {
		return err
	}

	h := handler.New(analyzer, f.MaxSize(), cfg.RequestTimeout)

	server := &http.Server{
		Addr: net.JoinHostPort("", cfg.Port),
		Handler: router.New(h, router.Options{
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	metricsServer := &http.Server{
		Addr:              net.JoinHostPort("", cfg.MetricsPort),
		Handler:           router.NewMetricsRouter(),
		ReadHeaderTimeout: cfg.ReadTimeout,
	}

	servers := []*http.Server{server, metricsServer}

	// Pprof only enabled in dev env
	if cfg.IsDev {
		servers = append(servers, debug.StartPprof(pprofAddr))
	}

	errCh := make(chan error, 2)

	go func() {
		log.Logger.Info("metrics server started", zap.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	go func() {
		log.Logger.Info("server started",
			zap.String("addr", server.Addr),
			zap.String("policy_url", cfg.PolicyURL),
			zap.String("model", cfg.OpenAIModel),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Logger.Info("shutting down server gracefully")
	case runErr = <-errCh:
		log.Logger.Error("server failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Logger.Error("server forced to shutdown", zap.String("addr", s.Addr), zap.Error(err))
			runErr = errors.Join(runErr, err)
		}
	}

	if runErr == nil {
		log.Logger.Info("server exited successfully")
	}
	return runErr
}
