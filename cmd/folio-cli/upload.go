package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/clientcli"
)

var (
	uploadTitle       string
	uploadDescription string
	uploadTags        []string
	uploadFeatured    bool
	uploadContentType string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <image> [image...]",
	Short: "Upload images to the gallery",
	Long: `Upload images to the gallery.

Each file is sent straight to object storage through a signed URL; the
server then records the uploaded files as gallery items. Titles default
to the file name.

Examples:
  folio-cli upload sunset.jpg
  folio-cli upload --tags travel,coast --featured ./trip/*.jpg
  folio-cli upload --title "Harbor at dawn" harbor.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "title for every image (default: derived from the file name)")
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "d", "", "description")
	uploadCmd.Flags().StringSliceVar(&uploadTags, "tags", nil, "comma-separated tags")
	uploadCmd.Flags().BoolVar(&uploadFeatured, "featured", false, "mark the images as featured")
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "override content-type")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		Paths:       args,
		Title:       uploadTitle,
		Description: uploadDescription,
		Tags:        uploadTags,
		Featured:    uploadFeatured,
		ContentType: uploadContentType,
	})
	if len(results) > 0 {
		if fmtErr := getFormatter().FormatUpload(cmd.OutOrStdout(), results); fmtErr != nil {
			return fmtErr
		}
	}
	if err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{}
	}
	return nil
}
