package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"complianceanalyzer/internal/config"
	"complianceanalyzer/internal/log"
)

const appName = "complianceanalyzer"

// cfg is loaded once by the root command before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "checks marketing webpages against a compliance policy document",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		cfg, err = config.Load(envFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if err := log.InitLogger(cfg.IsDev, cfg.LogLevel); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", ".env", "env file location")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("dev", false, "development logging and pprof")
}

// Execute runs the root command until it returns or the process is signalled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Logger.Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
