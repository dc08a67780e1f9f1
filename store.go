package folio

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

const (
	defaultCacheTTL          = 5 * time.Minute
	defaultAnalyticsCacheTTL = time.Minute
	defaultPageLimit         = 12
	defaultFeaturedLimit     = 6
	maxPageLimit             = 100

	galleryCacheControl   = "no-cache, no-store, must-revalidate, max-age=0"
	analyticsCacheControl = "public, max-age=60"
)

// documentLabels name each document in client-facing write errors.
var documentLabels = map[string]string{
	BlogsDocument:     "blogs index",
	GalleryDocument:   "gallery index",
	AnalyticsDocument: "analytics",
}

// StoreConfig holds configuration options for Store.
type StoreConfig struct {
	Source            ContentSource
	CacheTTL          time.Duration // Blog and gallery read cache (default: 5m)
	AnalyticsCacheTTL time.Duration // Analytics read cache (default: 1m)
	Fallback          *Fallback     // Defaults to the bundled dataset
	Now               func() time.Time
}

// Store keeps the blog, gallery and analytics index documents.
//
// Every mutation is a read-modify-write of a whole document: a fresh read,
// an in-memory change, and an unconditional overwrite. Two concurrent
// mutations of the same document can therefore lose one update; callers that
// need stronger guarantees must serialize writes themselves.
//
// Read paths favor availability: when the document store is unconfigured,
// unreachable, or returns something unparsable, blog and gallery reads serve
// the fallback dataset and analytics reads serve a zeroed document.
type Store struct {
	docs         DocumentStore
	resolver     ObjectResolver
	source       ContentSource
	cacheTTL     time.Duration
	analyticsTTL time.Duration
	cache        *documentCache
	fallback     Fallback
	now          func() time.Time
}

// NewStore creates a Store over docs. docs may be nil, in which case reads
// serve the fallback dataset and writes fail with ErrNotConfigured. resolver
// may be nil; InferObjectPath then always reports no match.
func NewStore(docs DocumentStore, resolver ObjectResolver, cfg StoreConfig) (*Store, error) {
	source, err := ParseContentSource(string(cfg.Source))
	if err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}

	var fb Fallback
	if cfg.Fallback != nil {
		fb = *cfg.Fallback
	} else {
		fb, err = BundledFallback()
		if err != nil {
			return nil, fmt.Errorf("new store: %w", err)
		}
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	analyticsTTL := cfg.AnalyticsCacheTTL
	if analyticsTTL <= 0 {
		analyticsTTL = defaultAnalyticsCacheTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		docs:         docs,
		resolver:     resolver,
		source:       source,
		cacheTTL:     cacheTTL,
		analyticsTTL: analyticsTTL,
		cache:        newDocumentCache(now),
		fallback:     fb,
		now:          now,
	}, nil
}

func (s *Store) read(ctx context.Context, name string, fresh bool, ttl time.Duration, v any) error {
	if s.docs == nil {
		return NotConfigured("document store is not configured")
	}

	if !fresh {
		if data, ok := s.cache.get(name); ok {
			return json.Unmarshal(data, v)
		}
	}

	data, err := s.docs.Get(ctx, name, GetOptions{Fresh: fresh})
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}

	if !fresh {
		s.cache.set(name, data, ttl)
	}
	return nil
}

func (s *Store) write(ctx context.Context, name string, v any, opts PutOptions) error {
	if s.docs == nil {
		return NotConfigured("document store is not configured")
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	opts.ContentType = "application/json"
	if err := s.docs.Put(ctx, name, data, opts); err != nil {
		var up *UpstreamError
		if errors.As(err, &up) {
			return &UpstreamError{Op: "persist " + documentLabels[name], StatusCode: up.StatusCode}
		}
		return fmt.Errorf("write %s: %w", name, err)
	}

	s.cache.invalidate(name)
	return nil
}

// ListBlogs returns all posts sorted by date, newest first.
func (s *Store) ListBlogs(ctx context.Context) ([]BlogPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}

	var blogs []BlogPost
	if s.source == SourceLocal {
		blogs = s.fallback.blogs()
	} else {
		var err error
		blogs, err = s.loadBlogs(ctx, false)
		if err != nil {
			slog.Warn("blog index unavailable, serving fallback", "err", err)
			blogs = s.fallback.blogs()
		}
	}

	sortBlogs(blogs)
	return blogs, nil
}

// GetBlog returns the post with slug.
func (s *Store) GetBlog(ctx context.Context, slug string) (BlogPost, error) {
	blogs, err := s.ListBlogs(ctx)
	if err != nil {
		return BlogPost{}, err
	}
	for _, b := range blogs {
		if b.Slug == slug {
			return b, nil
		}
	}
	return BlogPost{}, NotFound("Blog not found")
}

// AppendBlog prepends post to the index. post.Slug is treated as the base
// slug and gets a numeric suffix if it collides with an existing post.
// The stored post is returned.
func (s *Store) AppendBlog(ctx context.Context, post BlogPost) (BlogPost, error) {
	current, err := s.currentBlogs(ctx)
	if err != nil {
		return BlogPost{}, fmt.Errorf("append blog: %w", err)
	}

	taken := make(map[string]bool, len(current))
	for _, b := range current {
		taken[b.Slug] = true
	}
	post.Slug = UniqueSlug(post.Slug, func(slug string) bool { return taken[slug] })

	next := append([]BlogPost{post}, current...)
	if err := s.write(ctx, BlogsDocument, next, PutOptions{}); err != nil {
		return BlogPost{}, fmt.Errorf("append blog: %w", err)
	}
	return post, nil
}

// DeleteBlog removes the post with slug. It reports false, without writing,
// when no post matched.
func (s *Store) DeleteBlog(ctx context.Context, slug string) (bool, error) {
	current, err := s.currentBlogs(ctx)
	if err != nil {
		return false, fmt.Errorf("delete blog: %w", err)
	}

	next := slices.DeleteFunc(slices.Clone(current), func(b BlogPost) bool { return b.Slug == slug })
	if len(next) == len(current) {
		return false, nil
	}

	if err := s.write(ctx, BlogsDocument, next, PutOptions{}); err != nil {
		return false, fmt.Errorf("delete blog: %w", err)
	}
	return true, nil
}

func (s *Store) loadBlogs(ctx context.Context, fresh bool) ([]BlogPost, error) {
	var blogs []BlogPost
	if err := s.read(ctx, BlogsDocument, fresh, s.cacheTTL, &blogs); err != nil {
		return nil, err
	}
	if blogs == nil {
		blogs = []BlogPost{}
	}
	for i := range blogs {
		blogs[i].Excerpt = strings.TrimSpace(blogs[i].Excerpt)
	}
	return blogs, nil
}

// currentBlogs is the fresh pre-write read. A missing document is an empty
// index; any other failure is returned so a write never replaces data it
// could not read.
func (s *Store) currentBlogs(ctx context.Context) ([]BlogPost, error) {
	blogs, err := s.loadBlogs(ctx, true)
	if errors.Is(err, ErrNotFound) {
		return []BlogPost{}, nil
	}
	return blogs, err
}

// ListGallery returns all gallery items sorted by createdAt, newest first.
func (s *Store) ListGallery(ctx context.Context) ([]GalleryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}

	var items []GalleryItem
	if s.source == SourceLocal {
		items = s.fallback.gallery()
	} else {
		var err error
		items, err = s.loadGallery(ctx, false)
		if err != nil {
			slog.Warn("gallery index unavailable, serving fallback", "err", err)
			items = s.fallback.gallery()
		}
	}

	sortGallery(items)
	return items, nil
}

// GalleryPage returns page (1-based) of limit items. Non-positive values
// select page 1 and a limit of 12; limit is capped at 100.
func (s *Store) GalleryPage(ctx context.Context, page, limit int) (GalleryPage, error) {
	items, err := s.ListGallery(ctx)
	if err != nil {
		return GalleryPage{}, err
	}

	page = max(page, 1)
	limit = pageLimit(limit, defaultPageLimit)

	start := len(items)
	if page-1 <= len(items)/limit {
		start = min((page-1)*limit, len(items))
	}
	end := min(start+limit, len(items))

	return GalleryPage{
		Items:   items[start:end],
		HasMore: end < len(items),
		Total:   len(items),
	}, nil
}

func pageLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, maxPageLimit)
}

// FeaturedGallery returns up to limit featured items, newest first.
// A non-positive limit selects 6; limit is capped at 100.
func (s *Store) FeaturedGallery(ctx context.Context, limit int) ([]GalleryItem, error) {
	items, err := s.ListGallery(ctx)
	if err != nil {
		return nil, err
	}

	limit = pageLimit(limit, defaultFeaturedLimit)

	featured := make([]GalleryItem, 0, limit)
	for _, it := range items {
		if it.Featured {
			featured = append(featured, it)
			if len(featured) == limit {
				break
			}
		}
	}
	return featured, nil
}

// GalleryItem looks up one item with a fresh read.
func (s *Store) GalleryItem(ctx context.Context, id string) (GalleryItem, error) {
	current, err := s.currentGallery(ctx)
	if err != nil {
		return GalleryItem{}, fmt.Errorf("get gallery item: %w", err)
	}
	for _, it := range current {
		if it.ID == id {
			return it, nil
		}
	}
	return GalleryItem{}, fmt.Errorf("get gallery item %s: %w", id, ErrNotFound)
}

func (s *Store) AppendGalleryItem(ctx context.Context, item GalleryItem) error {
	return s.AppendGalleryItems(ctx, []GalleryItem{item})
}

// AppendGalleryItems prepends items, in order, with a single write.
func (s *Store) AppendGalleryItems(ctx context.Context, items []GalleryItem) error {
	current, err := s.currentGallery(ctx)
	if err != nil {
		return fmt.Errorf("append gallery items: %w", err)
	}

	next := make([]GalleryItem, 0, len(items)+len(current))
	next = append(next, items...)
	next = append(next, current...)

	if err := s.writeGallery(ctx, next, 0); err != nil {
		return fmt.Errorf("append gallery items: %w", err)
	}
	return nil
}

// DeleteGalleryItem removes the item with id. It reports false, without
// writing, when no item matched.
func (s *Store) DeleteGalleryItem(ctx context.Context, id string) (bool, error) {
	current, err := s.currentGallery(ctx)
	if err != nil {
		return false, fmt.Errorf("delete gallery item: %w", err)
	}

	next := slices.DeleteFunc(slices.Clone(current), func(it GalleryItem) bool { return it.ID == id })
	if len(next) == len(current) {
		return false, nil
	}

	if err := s.writeGallery(ctx, next, 0); err != nil {
		return false, fmt.Errorf("delete gallery item: %w", err)
	}
	return true, nil
}

// RawGallery returns the stored gallery index as-is with a fresh read and no
// fallback. Returns ErrNotFound when the index was never written.
func (s *Store) RawGallery(ctx context.Context) ([]GalleryItem, error) {
	items, err := s.loadGallery(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("raw gallery: %w", err)
	}
	return items, nil
}

// ReplaceGallery overwrites the gallery index. expires bounds the signed
// write URL where the backend uses one; zero selects the backend default.
func (s *Store) ReplaceGallery(ctx context.Context, items []GalleryItem, expires time.Duration) error {
	if err := s.writeGallery(ctx, items, expires); err != nil {
		return fmt.Errorf("replace gallery: %w", err)
	}
	return nil
}

func (s *Store) loadGallery(ctx context.Context, fresh bool) ([]GalleryItem, error) {
	var items []GalleryItem
	if err := s.read(ctx, GalleryDocument, fresh, s.cacheTTL, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []GalleryItem{}
	}
	for i := range items {
		if items[i].Tags == nil {
			items[i].Tags = []string{}
		}
	}
	return items, nil
}

func (s *Store) currentGallery(ctx context.Context) ([]GalleryItem, error) {
	items, err := s.loadGallery(ctx, true)
	if errors.Is(err, ErrNotFound) {
		return []GalleryItem{}, nil
	}
	return items, err
}

func (s *Store) writeGallery(ctx context.Context, items []GalleryItem, expires time.Duration) error {
	if items == nil {
		items = []GalleryItem{}
	}
	return s.write(ctx, GalleryDocument, items, PutOptions{
		CacheControl: galleryCacheControl,
		Expires:      expires,
	})
}

// InferObjectPath recovers the object name from a public image URL, or ""
// when the URL does not point into the configured store.
func (s *Store) InferObjectPath(imageURL string) string {
	if s.resolver == nil || imageURL == "" {
		return ""
	}
	name, ok := s.resolver.ObjectName(imageURL)
	if !ok {
		return ""
	}
	return name
}

// Analytics returns the analytics document, served from a short-lived cache.
// Any read failure yields a zeroed document.
func (s *Store) Analytics(ctx context.Context) (AnalyticsData, error) {
	if err := ctx.Err(); err != nil {
		return AnalyticsData{}, fmt.Errorf("analytics: %w", err)
	}

	var data AnalyticsData
	if err := s.read(ctx, AnalyticsDocument, false, s.analyticsTTL, &data); err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNotConfigured) {
			slog.Warn("analytics unavailable, serving zeroed document", "err", err)
		}
		return NewAnalytics(s.now()), nil
	}
	return normalizeAnalytics(data), nil
}

// IncrementView adds one view (and one unique view when unique is set) to the
// counter for key and to the totals, then writes the document back.
func (s *Store) IncrementView(ctx context.Context, kind ViewKind, key string, unique bool) (AnalyticsData, error) {
	var data AnalyticsData
	err := s.read(ctx, AnalyticsDocument, true, 0, &data)
	switch {
	case errors.Is(err, ErrNotFound):
		data = NewAnalytics(s.now())
	case err != nil:
		return AnalyticsData{}, fmt.Errorf("increment %s view: %w", kind, err)
	}
	data = normalizeAnalytics(data)

	now := FormatTimestamp(s.now())
	var uniqueInc int64
	if unique {
		uniqueInc = 1
	}

	switch kind {
	case ViewPage:
		i := slices.IndexFunc(data.Pages, func(p PageStat) bool { return p.Path == key })
		if i < 0 {
			data.Pages = append(data.Pages, PageStat{Path: key})
			i = len(data.Pages) - 1
		}
		data.Pages[i].Views++
		data.Pages[i].UniqueViews += uniqueInc
		data.Pages[i].LastUpdated = now
	case ViewBlog:
		i := slices.IndexFunc(data.Blogs, func(b BlogStat) bool { return b.Slug == key })
		if i < 0 {
			data.Blogs = append(data.Blogs, BlogStat{Slug: key})
			i = len(data.Blogs) - 1
		}
		data.Blogs[i].Views++
		data.Blogs[i].UniqueViews += uniqueInc
		data.Blogs[i].LastUpdated = now
	default:
		return AnalyticsData{}, fmt.Errorf("increment view: %w: unknown kind %q", ErrInvalidInput, kind)
	}

	data.TotalViews++
	data.TotalUniqueViews += uniqueInc
	data.LastUpdated = now

	if err := s.write(ctx, AnalyticsDocument, data, PutOptions{CacheControl: analyticsCacheControl}); err != nil {
		return AnalyticsData{}, fmt.Errorf("increment %s view: %w", kind, err)
	}
	return data, nil
}

// IncrementPageView counts a view of the page at path.
func (s *Store) IncrementPageView(ctx context.Context, path string, unique bool) (AnalyticsData, error) {
	return s.IncrementView(ctx, ViewPage, path, unique)
}

// IncrementBlogView counts a view of the post with slug.
func (s *Store) IncrementBlogView(ctx context.Context, slug string, unique bool) (AnalyticsData, error) {
	return s.IncrementView(ctx, ViewBlog, slug, unique)
}

// ResetAnalytics overwrites the analytics document with a zeroed one.
func (s *Store) ResetAnalytics(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reset analytics: %w", err)
	}
	if err := s.write(ctx, AnalyticsDocument, NewAnalytics(s.now()), PutOptions{CacheControl: analyticsCacheControl}); err != nil {
		return fmt.Errorf("reset analytics: %w", err)
	}
	return nil
}

// Seed writes an empty blogs index, gallery index and analytics document
// for each one that was never written, and returns the names it created.
// Existing documents are left untouched.
func (s *Store) Seed(ctx context.Context) ([]string, error) {
	if s.docs == nil {
		return nil, NotConfigured("document store is not configured")
	}

	empty := []struct {
		name string
		v    any
		opts PutOptions
	}{
		{name: BlogsDocument, v: []BlogPost{}},
		{name: GalleryDocument, v: []GalleryItem{}, opts: PutOptions{CacheControl: galleryCacheControl}},
		{name: AnalyticsDocument, v: NewAnalytics(s.now()), opts: PutOptions{CacheControl: analyticsCacheControl}},
	}

	var created []string
	for _, doc := range empty {
		_, err := s.docs.Get(ctx, doc.name, GetOptions{Fresh: true})
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, fmt.Errorf("seed %s: %w", doc.name, err)
		}
		if err := s.write(ctx, doc.name, doc.v, doc.opts); err != nil {
			return created, fmt.Errorf("seed: %w", err)
		}
		created = append(created, doc.name)
	}
	return created, nil
}

func normalizeAnalytics(d AnalyticsData) AnalyticsData {
	if d.Pages == nil {
		d.Pages = []PageStat{}
	}
	if d.Blogs == nil {
		d.Blogs = []BlogStat{}
	}
	return d
}

func sortBlogs(blogs []BlogPost) {
	slices.SortStableFunc(blogs, func(a, b BlogPost) int {
		return cmp.Compare(b.Date, a.Date)
	})
}

func sortGallery(items []GalleryItem) {
	slices.SortStableFunc(items, func(a, b GalleryItem) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
}
