package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "folio",
	Short:   "Portfolio content server",
	Long: `Folio serves the blog, gallery and analytics content of a portfolio
site and authorizes direct image uploads to object storage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Env, cfg.Log.Level)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSlice("config", nil, "config file paths, later files override earlier ones (default: ./config.yaml)")
	flags.String("env", "", "environment name; prod or production switches to JSON logs (env: FOLIO_ENV)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env: FOLIO_LOG_LEVEL)")
	flags.String("storage-type", "", "object storage: gcs, s3, minio, stowry, filesystem (env: FOLIO_STORAGE_TYPE)")
	flags.String("storage-path", "", "data directory of the filesystem backend (env: FOLIO_STORAGE_PATH)")
	flags.String("bucket", "", "bucket holding images and index documents (env: FOLIO_STORAGE_BUCKET, GCS_BUCKET_NAME)")
	flags.String("documents-type", "", "index document backend: object, filesystem, sqlite, postgres, badger (env: FOLIO_DOCUMENTS_TYPE)")
	flags.String("documents-dsn", "", "database connection string or data directory (env: FOLIO_DOCUMENTS_DSN)")
	flags.String("content-source", "", "remote or local (env: FOLIO_CONTENT_SOURCE, CONTENT_SOURCE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
