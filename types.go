package folio

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Document names inside the object store.
const (
	BlogsDocument     = "blogs/index.json"
	GalleryDocument   = "gallery/metadata/index.json"
	AnalyticsDocument = "analytics/index.json"
)

// TimestampFormat is the ISO-8601 layout used for createdAt and lastUpdated
// fields: millisecond precision, always UTC.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// DateFormat is the calendar date layout used for blog post dates.
const DateFormat = "2006-01-02"

// FormatTimestamp renders t in TimestampFormat.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// ContentBlock is one block of a blog post body. Exactly one of the fields is
// set for blocks produced by ParseBody; stored posts written by older tools
// may combine a heading with paragraphs.
type ContentBlock struct {
	Heading   string   `json:"heading,omitempty" yaml:"heading,omitempty"`
	Paragraph []string `json:"paragraph,omitempty" yaml:"paragraph,omitempty"`
	Image     string   `json:"image,omitempty" yaml:"image,omitempty"`
}

func (b ContentBlock) isEmpty() bool {
	return b.Heading == "" && len(b.Paragraph) == 0 && b.Image == ""
}

type BlogPost struct {
	Slug    string         `json:"slug" yaml:"slug"`
	Title   string         `json:"title" yaml:"title"`
	Date    string         `json:"date" yaml:"date"`
	Excerpt string         `json:"excerpt" yaml:"excerpt"`
	Content []ContentBlock `json:"content" yaml:"content"`
}

type GalleryItem struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags" yaml:"tags"`
	ImageURL    string   `json:"imageUrl" yaml:"imageUrl"`
	ObjectPath  string   `json:"objectPath,omitempty" yaml:"objectPath,omitempty"`
	CreatedAt   string   `json:"createdAt" yaml:"createdAt"`
	Featured    bool     `json:"featured" yaml:"featured"`
}

// GalleryPage is one page of gallery items ordered newest first.
type GalleryPage struct {
	Items   []GalleryItem `json:"items"`
	HasMore bool          `json:"hasMore"`
	Total   int           `json:"total"`
}

type PageStat struct {
	Path        string `json:"path"`
	Views       int64  `json:"views"`
	UniqueViews int64  `json:"uniqueViews"`
	LastUpdated string `json:"lastUpdated"`
}

type BlogStat struct {
	Slug        string `json:"slug"`
	Views       int64  `json:"views"`
	UniqueViews int64  `json:"uniqueViews"`
	LastUpdated string `json:"lastUpdated"`
}

type AnalyticsData struct {
	Pages            []PageStat `json:"pages"`
	Blogs            []BlogStat `json:"blogs"`
	TotalViews       int64      `json:"totalViews"`
	TotalUniqueViews int64      `json:"totalUniqueViews"`
	LastUpdated      string     `json:"lastUpdated"`
}

// NewAnalytics returns the zeroed analytics document.
func NewAnalytics(now time.Time) AnalyticsData {
	return AnalyticsData{
		Pages:       []PageStat{},
		Blogs:       []BlogStat{},
		LastUpdated: FormatTimestamp(now),
	}
}

// ViewKind selects which analytics counter a view increments.
type ViewKind string

const (
	ViewPage ViewKind = "page"
	ViewBlog ViewKind = "blog"
)

func (k ViewKind) IsValid() bool {
	switch k {
	case ViewPage, ViewBlog:
		return true
	default:
		return false
	}
}

// ContentSource selects where read paths take their data from.
type ContentSource string

const (
	// SourceRemote reads index documents from the configured document store.
	SourceRemote ContentSource = "remote"
	// SourceLocal always serves the bundled fallback dataset.
	SourceLocal ContentSource = "local"
)

func (s ContentSource) IsValid() bool {
	switch s {
	case SourceRemote, SourceLocal:
		return true
	default:
		return false
	}
}

func ParseContentSource(s string) (ContentSource, error) {
	if s == "" {
		return SourceRemote, nil
	}
	src := ContentSource(s)
	if !src.IsValid() {
		return "", fmt.Errorf("invalid content source: %s (valid sources: remote, local)", s)
	}
	return src, nil
}

// GetOptions controls a document read.
type GetOptions struct {
	// Fresh bypasses every cache between the caller and the stored document.
	// Reads that precede a write must be fresh.
	Fresh bool
}

// PutOptions controls a document write.
type PutOptions struct {
	ContentType  string
	CacheControl string
	// Expires bounds the lifetime of any signed URL used for the write.
	// Zero means the backend default.
	Expires time.Duration
}

// SignRequest describes one storage operation to authorize.
type SignRequest struct {
	ObjectName  string
	Method      string
	ContentType string
	Expires     time.Duration
}

// SignedURL is the result of signing: a URL carrying the authorization and the
// public URL the object is read from afterwards.
type SignedURL struct {
	SignedURL string `json:"signedUrl"`
	PublicURL string `json:"publicUrl"`
}

// ProbeResult is the outcome of a HEAD request against an image URL.
type ProbeResult struct {
	StatusCode  int
	ContentType string
}

// OK reports whether the probe answered with a 2xx status.
func (p ProbeResult) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// Tables holds configurable table names for document storage.
type Tables struct {
	Documents string `mapstructure:"documents"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Documents == "" {
		return errors.New("validate tables: documents table name cannot be empty")
	}

	if !IsValidTableName(t.Documents) {
		return fmt.Errorf("validate tables: invalid documents table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Documents)
	}

	return nil
}
