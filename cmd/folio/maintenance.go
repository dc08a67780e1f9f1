package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/config"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove gallery items whose image is unreachable",
	Long: `Probe every stored gallery image with a HEAD request and delete the
entries (and, where possible, their objects) that do not answer with a
2xx status. This is the offline form of POST /gallery/cleanup.`,
	RunE: runCleanup,
}

var fixInvalidCmd = &cobra.Command{
	Use:   "fix-invalid",
	Short: "Remove malformed gallery items",
	Long: `Drop gallery entries missing an id, title, imageUrl or createdAt, or
whose createdAt is not a date, and rewrite the index once. With --probe,
entries whose image is unreachable are dropped as well.`,
	RunE: runFixInvalid,
}

var fixInvalidProbe bool

func init() {
	fixInvalidCmd.Flags().BoolVar(&fixInvalidProbe, "probe", false, "also drop entries whose image does not answer a HEAD request")

	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(fixInvalidCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
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

	slog.Info("starting gallery cleanup")

	report, err := a.service.CleanupGallery(ctx)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}

	failed := 0
	for _, r := range report.Results {
		if !r.Success {
			failed++
			slog.Warn("could not remove gallery item", "id", r.ID, "err", r.Error)
		}
	}

	slog.Info(report.Message(),
		"total", report.TotalItems,
		"valid", report.ValidItems,
		"removed", report.BrokenItems-failed,
		"failed", failed)
	return nil
}

func runFixInvalid(cmd *cobra.Command, args []string) error {
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

	report, err := a.service.FixInvalidGallery(ctx, fixInvalidProbe)
	if err != nil {
		return fmt.Errorf("fix invalid: %w", err)
	}

	if !report.Found {
		slog.Info("no gallery index found")
		return nil
	}

	slog.Info("fix-invalid complete",
		"processed", report.TotalProcessed,
		"removed", report.Removed,
		"remaining", report.Remaining)
	return nil
}
