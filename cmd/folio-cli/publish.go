package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/clientcli"
)

var (
	publishTitle   string
	publishDate    string
	publishExcerpt string
)

var publishCmd = &cobra.Command{
	Use:   "publish <file.md>",
	Short: "Publish a markdown file as a blog post",
	Long: `Publish a markdown file as a blog post.

The body uses the post grammar of the server: "## " lines are headings,
a line holding only ![alt](url) is an image, and every other line belongs
to a paragraph. A leading "# Title" line is used as the title unless
--title is given.

Examples:
  folio-cli publish ./posts/tail-events.md
  folio-cli publish --date 2024-11-02 --excerpt "Outliers decide." post.md`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishTitle, "title", "", "post title (default: the leading # heading)")
	publishCmd.Flags().StringVar(&publishDate, "date", "", "publication date, YYYY-MM-DD (default: today)")
	publishCmd.Flags().StringVar(&publishExcerpt, "excerpt", "", "excerpt (default: the first paragraph lines)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	post, err := client.Publish(cmd.Context(), clientcli.PublishOptions{
		Path:    args[0],
		Title:   publishTitle,
		Date:    publishDate,
		Excerpt: publishExcerpt,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatPublish(cmd.OutOrStdout(), post)
}
