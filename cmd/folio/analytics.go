package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/config"
)

var resetAnalyticsCmd = &cobra.Command{
	Use:   "reset-analytics",
	Short: "Zero all view counters",
	RunE:  runResetAnalytics,
}

func init() {
	rootCmd.AddCommand(resetAnalyticsCmd)
}

func runResetAnalytics(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.ResetAnalytics(ctx); err != nil {
		return fmt.Errorf("reset analytics: %w", err)
	}

	slog.Info("analytics reset")
	return nil
}
