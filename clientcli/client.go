package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/folio"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	adminTokenHeader = "x-admin-token"
)

// Client talks to the folio content API.
type Client struct {
	config     *Config
	httpClient *http.Client
	base       string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	c := &Client{
		config: &Config{
			Endpoint:   endpoint,
			APIPrefix:  prefix,
			AdminToken: cfg.AdminToken,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
		base:       endpoint + prefix,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Verify checks the configured admin token against the server.
func (c *Client) Verify(ctx context.Context) error {
	if err := c.config.ValidateWithAuth(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/auth/verify", nil, tokenRequest{Token: c.config.AdminToken}, false, nil)
}

// ListBlogs returns every published post, newest first.
func (c *Client) ListBlogs(ctx context.Context) ([]folio.BlogPost, error) {
	var posts []folio.BlogPost
	if err := c.do(ctx, http.MethodGet, "/blogs", nil, nil, false, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetBlog returns one post.
func (c *Client) GetBlog(ctx context.Context, slug string) (*folio.BlogPost, error) {
	if slug == "" {
		return nil, fmt.Errorf("get blog: %w", ErrEmptyPath)
	}
	var post folio.BlogPost
	if err := c.do(ctx, http.MethodGet, "/blogs/"+url.PathEscape(slug), nil, nil, false, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Publish reads a markdown file and creates a post from it. A leading
// "# Title" line supplies the title when opts.Title is empty and is left out
// of the body.
func (c *Client) Publish(ctx context.Context, opts PublishOptions) (*folio.BlogPost, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("publish: %w", ErrEmptyPath)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(opts.Path) //#nosec G304 -- path is user-provided input
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	title, body := SplitTitle(string(data))
	if opts.Title != "" {
		title = opts.Title
	}
	if title == "" {
		return nil, fmt.Errorf("publish %s: %w", opts.Path, ErrEmptyTitle)
	}

	var post folio.BlogPost
	req := blogRequest{Title: title, Date: opts.Date, Excerpt: opts.Excerpt, Body: body}
	if err := c.do(ctx, http.MethodPost, "/blogs", nil, req, true, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// SplitTitle separates a leading "# " heading from the rest of a markdown
// document. Without one the title is empty and the body unchanged.
func SplitTitle(markdown string) (title, body string) {
	rest := markdown
	for rest != "" {
		line, after, _ := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			rest = after
			continue
		}
		if !strings.HasPrefix(trimmed, "# ") {
			return "", markdown
		}
		return strings.TrimSpace(trimmed[2:]), strings.TrimLeft(after, "\r\n")
	}
	return "", markdown
}

// ListGallery returns gallery items. With no page or limit the full list is
// returned as a single page.
func (c *Client) ListGallery(ctx context.Context, q GalleryQuery) (*folio.GalleryPage, error) {
	query := url.Values{}
	switch {
	case q.Featured:
		query.Set("featured", "true")
		if q.Limit > 0 {
			query.Set("limit", strconv.Itoa(q.Limit))
		}
	case q.Page > 0 || q.Limit > 0:
		if q.Page > 0 {
			query.Set("page", strconv.Itoa(q.Page))
		}
		if q.Limit > 0 {
			query.Set("limit", strconv.Itoa(q.Limit))
		}
		var page folio.GalleryPage
		if err := c.do(ctx, http.MethodGet, "/gallery", query, nil, false, &page); err != nil {
			return nil, err
		}
		return &page, nil
	}

	var items []folio.GalleryItem
	if err := c.do(ctx, http.MethodGet, "/gallery", query, nil, false, &items); err != nil {
		return nil, err
	}
	return &folio.GalleryPage{Items: items, Total: len(items)}, nil
}

// Upload authorizes one signed upload per file, PUTs each file straight to
// storage, then confirms the uploaded files so they are recorded in the
// gallery. A file whose upload fails is reported in its result and not
// confirmed.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("upload: %w", ErrNoFiles)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	images := make([]folio.UploadRequest, len(opts.Paths))
	for i, path := range opts.Paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		contentType := opts.ContentType
		if contentType == "" {
			contentType = detectContentType(path)
		}
		title := opts.Title
		if title == "" {
			title = TitleFromFilename(path)
		}
		images[i] = folio.UploadRequest{
			Filename:    filepath.Base(path),
			ContentType: contentType,
			Title:       title,
			Description: opts.Description,
			Featured:    opts.Featured,
		}
		if len(opts.Tags) > 0 {
			images[i].Tags = opts.Tags
		}
	}

	var signed uploadsResponse
	if err := c.do(ctx, http.MethodPost, "/gallery/multi-upload", nil, uploadsRequest{Images: images}, true, &signed); err != nil {
		return nil, err
	}
	if len(signed.Uploads) != len(images) {
		return nil, fmt.Errorf("upload: server authorized %d of %d files", len(signed.Uploads), len(images))
	}

	results := make([]UploadResult, len(opts.Paths))
	var (
		completed []folio.CompletedUpload
		indexes   []int
	)
	for i, up := range signed.Uploads {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results[i] = UploadResult{LocalPath: opts.Paths[i], ObjectName: up.ObjectName, PublicURL: up.PublicURL}
		size, err := c.putObject(ctx, up.UploadURL, opts.Paths[i], images[i].ContentType)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Size = size
		completed = append(completed, folio.CompletedUpload{
			ID:         up.ID,
			PublicURL:  up.PublicURL,
			ObjectName: up.ObjectName,
			Metadata:   up.Metadata,
		})
		indexes = append(indexes, i)
	}

	if len(completed) == 0 {
		return results, nil
	}

	var done completeResponse
	if err := c.do(ctx, http.MethodPut, "/gallery/multi-upload", nil, completeRequest{CompletedUploads: completed}, true, &done); err != nil {
		return results, fmt.Errorf("confirm uploads: %w", err)
	}

	// Items come back in confirmation order, with ids assigned by the server.
	for j := range min(len(done.Items), len(indexes)) {
		item := done.Items[j]
		results[indexes[j]].Item = &item
	}

	return results, nil
}

// putObject streams a file to a signed upload URL.
func (c *Client) putObject(ctx context.Context, uploadURL, localPath, contentType string) (int64, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, parseServerError(resp.StatusCode, body)
	}
	return info.Size(), nil
}

// Delete removes posts or gallery items. It continues past failures,
// collecting one result per target.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.Targets) == 0 {
		return nil, ErrNoTargets
	}

	var path string
	switch opts.Kind {
	case KindBlog:
		path = "/blogs/"
	case KindGallery:
		path = "/gallery/"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, opts.Kind)
	}
	if err := c.config.ValidateWithAuth(); err != nil {
		return nil, err
	}

	results := make([]DeleteResult, 0, len(opts.Targets))
	for _, target := range opts.Targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		err := c.do(ctx, http.MethodDelete, path+url.PathEscape(target), nil, nil, true, nil)
		results = append(results, DeleteResult{Target: target, Deleted: err == nil, Err: err})
	}

	return results, nil
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for i := range results {
		if results[i].Err != nil {
			return true
		}
	}
	return false
}

// Analytics returns the view counters.
func (c *Client) Analytics(ctx context.Context) (*folio.AnalyticsData, error) {
	var data folio.AnalyticsData
	if err := c.do(ctx, http.MethodGet, "/analytics", nil, nil, false, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// do sends a JSON request to the API and decodes a JSON answer into out.
// admin attaches the token header.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any, admin bool, out any) error {
	target := c.base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if admin {
		req.Header.Set(adminTokenHeader, c.config.AdminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseServerError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// TitleFromFilename turns "sunset_over-lake.jpg" into "sunset over lake".
func TitleFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// detectContentType returns MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}

// parseServerError builds an APIError, using the "error" field of a JSON
// body as its message when there is one.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}
	var se serverError
	if json.Unmarshal(body, &se) == nil && se.Error != "" {
		apiErr.Message = se.Error
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the post or item does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when the admin token is wrong (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when a signed upload URL is rejected (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)
