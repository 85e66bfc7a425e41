package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"complianceanalyzer/internal/fetcher"
	"complianceanalyzer/internal/util"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <host/path>",
	Short: "analyze one webpage and print the report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := util.ParseTarget(args[0])
		if err != nil {
			return err
		}

		analyzer, err := newAnalyzer(cfg, fetcher.New(cfg.MaxResponseSize))
		if err != nil {
			return err
		}

		report, err := analyzer.AnalyzeURL(cmd.Context(), target)
		if err != nil {
			return err
		}

		out := json.NewEncoder(cmd.OutOrStdout())
		out.SetIndent("", "  ")
		if err := out.Encode(report); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
