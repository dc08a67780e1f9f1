package folio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentStore defines the interface for whole-document persistence of the
// JSON index files. Implementations exist for the object store reached over
// signed URLs, the local filesystem, and embedded or managed databases.
//
// All methods accept a context for cancellation and timeout control.
type DocumentStore interface {
	// Get retrieves the full body of a document.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - name: The document's object name, e.g. "blogs/index.json"
	//   - opts: GetOptions; Fresh must bypass any cache between caller and storage
	//
	// Returns:
	//   - []byte: The document body
	//   - error: ErrNotFound if the document was never written, *UpstreamError
	//     for failure statuses, or transport errors
	Get(ctx context.Context, name string, opts GetOptions) ([]byte, error)

	// Put replaces a document with body. There is no partial update and no
	// conditional write: the last writer wins.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - name: The document's object name
	//   - body: The complete new document
	//   - opts: PutOptions with content type, cache headers and signing expiry
	//
	// Returns:
	//   - error: ErrNotConfigured when credentials are missing, *UpstreamError
	//     for failure statuses, or transport errors
	Put(ctx context.Context, name string, body []byte, opts PutOptions) error
}

// ObjectDeleter removes binary objects such as uploaded images.
type ObjectDeleter interface {
	// Delete removes the named object. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, name string) error
}

// ObjectResolver maps a public object URL back to its object name.
type ObjectResolver interface {
	// ObjectName returns the object name addressed by rawURL, or false when the
	// URL does not point into the configured store (e.g. a third-party image).
	ObjectName(rawURL string) (string, bool)
}

// Signer produces time-limited URLs that authorize exactly one storage
// operation on one object, so clients can upload or delete without holding
// long-lived credentials and without the server proxying the bytes.
type Signer interface {
	ObjectResolver

	// SignURL authorizes req.Method on req.ObjectName for req.Expires.
	//
	// Returns:
	//   - SignedURL: the authorized URL and the object's public URL
	//   - error: ErrNotConfigured when the signing identity, key or bucket is
	//     unset, ErrInvalidInput for unusable object names or methods
	SignURL(ctx context.Context, req SignRequest) (SignedURL, error)

	// PublicURL returns the unauthenticated read URL of an object.
	PublicURL(objectName string) string
}

// Prober checks whether an image URL is reachable.
type Prober interface {
	// Probe issues a HEAD request against rawURL. A non-nil error means no
	// response was received (timeout, DNS, refused connection).
	Probe(ctx context.Context, rawURL string) (ProbeResult, error)
}

// ServiceConfig holds configuration options for Service.
type ServiceConfig struct {
	ValidateImages    bool          // HEAD-check image URLs before recording gallery items
	ProbeTimeout      time.Duration // Per-URL HEAD timeout (default: 5s)
	UploadExpiry      time.Duration // Single upload URL lifetime (default: 10m)
	BatchUploadExpiry time.Duration // Batch upload URL lifetime (default: 15m)
	RepairExpiry      time.Duration // Signed write lifetime for fix-invalid (default: 5m)
	Now               func() time.Time
	NewID             func() string
}

// Service implements the content operations behind the API handlers: input
// validation and transformation, upload authorization and maintenance sweeps.
// Persistence is delegated to Store.
type Service struct {
	store   *Store
	signer  Signer
	objects ObjectDeleter
	prober  Prober
	cfg     ServiceConfig
}

// NewService wires a Service. signer, objects and prober may be nil; the
// operations that need them then fail with ErrNotConfigured or skip the step.
func NewService(store *Store, signer Signer, objects ObjectDeleter, prober Prober, cfg ServiceConfig) *Service {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.UploadExpiry <= 0 {
		cfg.UploadExpiry = 10 * time.Minute
	}
	if cfg.BatchUploadExpiry <= 0 {
		cfg.BatchUploadExpiry = 15 * time.Minute
	}
	if cfg.RepairExpiry <= 0 {
		cfg.RepairExpiry = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	return &Service{
		store:   store,
		signer:  signer,
		objects: objects,
		prober:  prober,
		cfg:     cfg,
	}
}

// BlogInput is an admin request to publish a post.
type BlogInput struct {
	Title   string
	Date    string
	Excerpt string
	Body    string
}

// GalleryInput is an admin request to record an already uploaded image.
type GalleryInput struct {
	Title       string
	Description string
	Tags        any
	ImageURL    string
	ObjectPath  string
	Featured    *bool
	// Validate forces the HEAD check even when ValidateImages is off.
	Validate bool
}

// UploadTicket authorizes one direct upload.
type UploadTicket struct {
	UploadURL  string `json:"uploadUrl"`
	PublicURL  string `json:"publicUrl"`
	ObjectName string `json:"objectName"`
}

// UploadRequest is one entry of a batch upload authorization request.
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tags        any    `json:"tags,omitempty"`
	Featured    bool   `json:"featured,omitempty"`
}

// UploadMetadata travels with a batch upload from authorization to completion.
type UploadMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        any    `json:"tags"`
	Featured    bool   `json:"featured"`
}

// Upload is one authorized entry of a batch upload.
type Upload struct {
	ID         string         `json:"id"`
	UploadURL  string         `json:"uploadUrl"`
	PublicURL  string         `json:"publicUrl"`
	ObjectName string         `json:"objectName"`
	Metadata   UploadMetadata `json:"metadata"`
}

// CompletedUpload confirms one entry of a batch upload.
type CompletedUpload struct {
	ID         string         `json:"id"`
	PublicURL  string         `json:"publicUrl"`
	ObjectName string         `json:"objectName"`
	Metadata   UploadMetadata `json:"metadata"`
}

func (s *Service) ListBlogs(ctx context.Context) ([]BlogPost, error) {
	return s.store.ListBlogs(ctx)
}

func (s *Service) GetBlog(ctx context.Context, slug string) (BlogPost, error) {
	return s.store.GetBlog(ctx, slug)
}

// CreateBlog validates in, parses its body into blocks and prepends the post
// to the blog index under a slug unique at write time.
//
// Error types returned:
//   - ErrInvalidInput: missing title or body, or a body with no blocks
//   - ErrNotConfigured: no writable document store
//   - ErrUpstream: the store rejected the write
func (s *Service) CreateBlog(ctx context.Context, in BlogInput) (BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return BlogPost{}, fmt.Errorf("create blog: %w", err)
	}

	if in.Title == "" || in.Body == "" {
		return BlogPost{}, Invalid("Title and body are required")
	}

	content := ParseBody(in.Body)
	if len(content) == 0 {
		return BlogPost{}, Invalid("Body must include at least one paragraph or heading")
	}

	date := in.Date
	if date == "" {
		date = s.cfg.Now().UTC().Format(DateFormat)
	}

	post := BlogPost{
		Slug:    Slugify(in.Title),
		Title:   in.Title,
		Date:    date,
		Excerpt: Excerpt(in.Excerpt, content),
		Content: content,
	}

	created, err := s.store.AppendBlog(ctx, post)
	if err != nil {
		return BlogPost{}, fmt.Errorf("create blog %s: %w", post.Slug, err)
	}
	return created, nil
}

func (s *Service) DeleteBlog(ctx context.Context, slug string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}

	if slug == "" {
		return Invalid("Missing blog slug")
	}

	removed, err := s.store.DeleteBlog(ctx, slug)
	if err != nil {
		return fmt.Errorf("delete blog %s: %w", slug, err)
	}
	if !removed {
		return NotFound("Blog not found")
	}
	return nil
}

func (s *Service) ListGallery(ctx context.Context) ([]GalleryItem, error) {
	return s.store.ListGallery(ctx)
}

func (s *Service) GalleryPage(ctx context.Context, page, limit int) (GalleryPage, error) {
	return s.store.GalleryPage(ctx, page, limit)
}

func (s *Service) FeaturedGallery(ctx context.Context, limit int) ([]GalleryItem, error) {
	return s.store.FeaturedGallery(ctx, limit)
}

// CreateGalleryItem records an image that was uploaded (or hosted) elsewhere.
// When image validation is on, the URL must answer a HEAD request with a 2xx
// status and an image/* content type.
func (s *Service) CreateGalleryItem(ctx context.Context, in GalleryInput) (GalleryItem, error) {
	if err := ctx.Err(); err != nil {
		return GalleryItem{}, fmt.Errorf("create gallery item: %w", err)
	}

	if in.Title == "" || in.ImageURL == "" {
		return GalleryItem{}, Invalid("Title and imageUrl are required")
	}

	if s.cfg.ValidateImages || in.Validate {
		if err := s.validateImage(ctx, in.ImageURL); err != nil {
			return GalleryItem{}, err
		}
	}

	objectPath := in.ObjectPath
	if objectPath == "" {
		objectPath = s.store.InferObjectPath(in.ImageURL)
	}

	featured := false
	if in.Featured != nil {
		featured = *in.Featured
	}

	item := GalleryItem{
		ID:          s.cfg.NewID(),
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Tags:        ParseTags(in.Tags),
		ImageURL:    in.ImageURL,
		ObjectPath:  objectPath,
		CreatedAt:   FormatTimestamp(s.cfg.Now()),
		Featured:    featured,
	}

	if err := s.store.AppendGalleryItem(ctx, item); err != nil {
		return GalleryItem{}, fmt.Errorf("create gallery item %s: %w", item.ID, err)
	}
	return item, nil
}

func (s *Service) validateImage(ctx context.Context, imageURL string) error {
	if s.prober == nil {
		return NotConfigured("image validation is not configured")
	}

	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	res, err := s.prober.Probe(probeCtx, imageURL)
	if err != nil || !res.OK() {
		return Invalid("Image URL is not reachable")
	}
	if !strings.HasPrefix(strings.ToLower(res.ContentType), "image/") {
		return Invalid("Image URL does not point to an image")
	}
	return nil
}

// DeleteGalleryItem removes the stored image (best effort) and then the
// metadata entry. A failed or missing object never blocks the metadata delete.
func (s *Service) DeleteGalleryItem(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete gallery item: %w", err)
	}

	item, err := s.store.GalleryItem(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return NotFound("Gallery item not found")
		}
		return fmt.Errorf("delete gallery item %s: %w", id, err)
	}

	s.deleteObject(ctx, item)

	removed, err := s.store.DeleteGalleryItem(ctx, id)
	if err != nil {
		return fmt.Errorf("delete gallery item %s: %w", id, err)
	}
	if !removed {
		return &Error{Kind: ErrInternal, Message: "Failed to delete gallery entry"}
	}
	return nil
}

func (s *Service) deleteObject(ctx context.Context, item GalleryItem) {
	name := item.ObjectPath
	if name == "" {
		name = s.store.InferObjectPath(item.ImageURL)
	}
	if name == "" || s.objects == nil {
		return
	}

	err := s.objects.Delete(ctx, name)
	switch {
	case err == nil:
		slog.Info("deleted gallery object", "id", item.ID, "object", name)
	case errors.Is(err, ErrNotFound):
		slog.Info("gallery object already gone", "id", item.ID, "object", name)
	default:
		slog.Warn("failed to delete gallery object", "id", item.ID, "object", name, "err", err)
	}
}

// SignUpload authorizes one direct browser upload of a gallery image.
func (s *Service) SignUpload(ctx context.Context, filename, contentType string) (UploadTicket, error) {
	if err := ctx.Err(); err != nil {
		return UploadTicket{}, fmt.Errorf("sign upload: %w", err)
	}

	if filename == "" || contentType == "" {
		return UploadTicket{}, Invalid("filename and contentType are required")
	}

	objectName := UploadObjectName(s.cfg.NewID(), filename)
	signed, err := s.sign(ctx, objectName, contentType, s.cfg.UploadExpiry)
	if err != nil {
		return UploadTicket{}, fmt.Errorf("sign upload %s: %w", objectName, err)
	}

	return UploadTicket{
		UploadURL:  signed.SignedURL,
		PublicURL:  signed.PublicURL,
		ObjectName: objectName,
	}, nil
}

// SignUploads authorizes a batch of uploads. Either every entry is signed or
// none is.
func (s *Service) SignUploads(ctx context.Context, reqs []UploadRequest) ([]Upload, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sign uploads: %w", err)
	}

	if len(reqs) == 0 {
		return nil, Invalid("images array is required and must not be empty")
	}

	for _, r := range reqs {
		if r.Filename == "" || r.ContentType == "" || r.Title == "" {
			return nil, Invalid("Each image must have filename, contentType, and title")
		}
	}

	uploads := make([]Upload, 0, len(reqs))
	for _, r := range reqs {
		objectName := UploadObjectName(s.cfg.NewID(), r.Filename)
		signed, err := s.sign(ctx, objectName, r.ContentType, s.cfg.BatchUploadExpiry)
		if err != nil {
			return nil, fmt.Errorf("sign uploads %s: %w", objectName, err)
		}

		tags := r.Tags
		if tags == nil {
			tags = ""
		}

		uploads = append(uploads, Upload{
			ID:         s.cfg.NewID(),
			UploadURL:  signed.SignedURL,
			PublicURL:  signed.PublicURL,
			ObjectName: objectName,
			Metadata: UploadMetadata{
				Title:       r.Title,
				Description: r.Description,
				Tags:        tags,
				Featured:    r.Featured,
			},
		})
	}

	return uploads, nil
}

// CompleteUploads records the metadata of finished batch uploads with a
// single index write.
func (s *Service) CompleteUploads(ctx context.Context, completed []CompletedUpload) ([]GalleryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("complete uploads: %w", err)
	}

	if completed == nil {
		return nil, Invalid("completedUploads array is required")
	}

	createdAt := FormatTimestamp(s.cfg.Now())
	items := make([]GalleryItem, 0, len(completed))
	for _, c := range completed {
		items = append(items, GalleryItem{
			ID:          s.cfg.NewID(),
			Title:       c.Metadata.Title,
			Description: strings.TrimSpace(c.Metadata.Description),
			Tags:        ParseTags(c.Metadata.Tags),
			ImageURL:    c.PublicURL,
			ObjectPath:  c.ObjectName,
			CreatedAt:   createdAt,
			Featured:    c.Metadata.Featured,
		})
	}

	if err := s.store.AppendGalleryItems(ctx, items); err != nil {
		return nil, fmt.Errorf("complete uploads: %w", err)
	}
	return items, nil
}

func (s *Service) sign(ctx context.Context, objectName, contentType string, expires time.Duration) (SignedURL, error) {
	if s.signer == nil {
		return SignedURL{}, NotConfigured("storage signer is not configured")
	}
	return s.signer.SignURL(ctx, SignRequest{
		ObjectName:  objectName,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     expires,
	})
}

func (s *Service) Analytics(ctx context.Context) (AnalyticsData, error) {
	return s.store.Analytics(ctx)
}

// TrackView increments the page (key = path) or blog (key = slug) counter.
func (s *Service) TrackView(ctx context.Context, kind ViewKind, key string, unique bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("track view: %w", err)
	}

	switch kind {
	case ViewPage:
		if key == "" {
			return Invalid("Path is required for page tracking")
		}
	case ViewBlog:
		if key == "" {
			return Invalid("Slug is required for blog tracking")
		}
	default:
		return Invalid("Invalid type. Must be 'page' or 'blog'")
	}

	if _, err := s.store.IncrementView(ctx, kind, key, unique); err != nil {
		return fmt.Errorf("track %s view %s: %w", kind, key, err)
	}
	return nil
}

func (s *Service) ResetAnalytics(ctx context.Context) error {
	return s.store.ResetAnalytics(ctx)
}
