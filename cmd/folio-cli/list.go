package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/clientcli"
)

var (
	listPage     int
	listLimit    int
	listFeatured bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List blog posts, gallery items or analytics",
}

var listBlogsCmd = &cobra.Command{
	Use:   "blogs",
	Short: "List blog posts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		posts, err := client.ListBlogs(cmd.Context())
		if err != nil {
			return err
		}
		return getFormatter().FormatBlogs(cmd.OutOrStdout(), posts)
	},
}

var listGalleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List gallery items, newest first",
	Long: `List gallery items, newest first.

Examples:
  folio-cli list gallery
  folio-cli list gallery --page 2 --limit 12
  folio-cli list gallery --featured`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		page, err := client.ListGallery(cmd.Context(), clientcli.GalleryQuery{
			Page:     listPage,
			Limit:    listLimit,
			Featured: listFeatured,
		})
		if err != nil {
			return err
		}
		return getFormatter().FormatGallery(cmd.OutOrStdout(), page)
	},
}

var listAnalyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show view counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		data, err := client.Analytics(cmd.Context())
		if err != nil {
			return err
		}
		return getFormatter().FormatAnalytics(cmd.OutOrStdout(), data)
	},
}

func init() {
	listGalleryCmd.Flags().IntVar(&listPage, "page", 0, "page number, starting at 1")
	listGalleryCmd.Flags().IntVarP(&listLimit, "limit", "l", 0, "items per page (default: all items, or 12 when --page is set)")
	listGalleryCmd.Flags().BoolVar(&listFeatured, "featured", false, "only featured items")

	listCmd.AddCommand(listBlogsCmd)
	listCmd.AddCommand(listGalleryCmd)
	listCmd.AddCommand(listAnalyticsCmd)
}
