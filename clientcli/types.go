package clientcli

import "github.com/sagarc03/folio"

// Kind selects the content a delete targets.
type Kind string

const (
	KindBlog    Kind = "blog"
	KindGallery Kind = "gallery"
)

// PublishOptions configures publishing a markdown file as a blog post.
type PublishOptions struct {
	Path    string
	Title   string // optional, taken from a leading "# " line when empty
	Date    string // optional, YYYY-MM-DD; the server uses today when empty
	Excerpt string // optional, derived by the server when empty
}

// UploadOptions configures an image upload.
type UploadOptions struct {
	Paths       []string
	Title       string // optional, derived from each file name when empty
	Description string
	Tags        []string
	Featured    bool
	ContentType string // optional, auto-detect if empty
}

// UploadResult represents the result of uploading a single image.
type UploadResult struct {
	LocalPath  string             `json:"local_path"`
	ObjectName string             `json:"object_name,omitempty"`
	PublicURL  string             `json:"public_url,omitempty"`
	Size       int64              `json:"size_bytes,omitempty"`
	Item       *folio.GalleryItem `json:"item,omitempty"`
	Err        error              `json:"-"` // nil on success
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Kind    Kind
	Targets []string // slugs or gallery ids
}

// DeleteResult represents the result of deleting a single post or item.
type DeleteResult struct {
	Target  string `json:"target"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// GalleryQuery selects gallery items. Zero Page and Limit list everything.
type GalleryQuery struct {
	Page     int
	Limit    int
	Featured bool
}

// serverError mirrors the server's error body.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type blogRequest struct {
	Title   string `json:"title"`
	Date    string `json:"date,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
	Body    string `json:"body"`
}

type uploadsRequest struct {
	Images []folio.UploadRequest `json:"images"`
}

type uploadsResponse struct {
	Uploads []folio.Upload `json:"uploads"`
}

type completeRequest struct {
	CompletedUploads []folio.CompletedUpload `json:"completedUploads"`
}

type completeResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Items   []folio.GalleryItem `json:"items"`
}
