package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare the document backend",
	Long: `Create and migrate the configured document backend, then write empty
blog, gallery and analytics documents for any that do not exist yet.
Existing documents are never overwritten. This is useful when:
  - Setting up folio on a new bucket or database
  - Switching documents.type to a fresh backend`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
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

	created, err := a.store.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed documents: %w", err)
	}

	for _, name := range created {
		slog.Info("created document", "name", name)
	}
	slog.Info("initialization complete", "documents", cfg.Documents.Type, "created", len(created))
	return nil
}
