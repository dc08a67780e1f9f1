package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/clientcli"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete blog posts or gallery items",
}

var deleteBlogCmd = &cobra.Command{
	Use:   "blog <slug> [slug...]",
	Short: "Delete blog posts by slug",
	Long: `Delete blog posts by slug.

Examples:
  folio-cli delete blog hello-world
  folio-cli delete blog draft-one draft-two`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(cmd, clientcli.KindBlog, args)
	},
}

var deleteGalleryCmd = &cobra.Command{
	Use:   "gallery <id> [id...]",
	Short: "Delete gallery items and their images by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDelete(cmd, clientcli.KindGallery, args)
	},
}

func init() {
	deleteCmd.AddCommand(deleteBlogCmd)
	deleteCmd.AddCommand(deleteGalleryCmd)
}

func runDelete(cmd *cobra.Command, kind clientcli.Kind, targets []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{Kind: kind, Targets: targets})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{}
	}
	return nil
}
