package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/keybackend"
)

// Service is the content service behind the API. *folio.Service implements it.
type Service interface {
	ListBlogs(ctx context.Context) ([]folio.BlogPost, error)
	GetBlog(ctx context.Context, slug string) (folio.BlogPost, error)
	CreateBlog(ctx context.Context, in folio.BlogInput) (folio.BlogPost, error)
	DeleteBlog(ctx context.Context, slug string) error

	ListGallery(ctx context.Context) ([]folio.GalleryItem, error)
	GalleryPage(ctx context.Context, page, limit int) (folio.GalleryPage, error)
	FeaturedGallery(ctx context.Context, limit int) ([]folio.GalleryItem, error)
	CreateGalleryItem(ctx context.Context, in folio.GalleryInput) (folio.GalleryItem, error)
	DeleteGalleryItem(ctx context.Context, id string) error

	SignUpload(ctx context.Context, filename, contentType string) (folio.UploadTicket, error)
	SignUploads(ctx context.Context, reqs []folio.UploadRequest) ([]folio.Upload, error)
	CompleteUploads(ctx context.Context, completed []folio.CompletedUpload) ([]folio.GalleryItem, error)

	CleanupGallery(ctx context.Context) (folio.CleanupReport, error)
	FixInvalidGallery(ctx context.Context, probe bool) (folio.RepairReport, error)

	Analytics(ctx context.Context) (folio.AnalyticsData, error)
	TrackView(ctx context.Context, kind folio.ViewKind, key string, unique bool) error
	ResetAnalytics(ctx context.Context) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// APIPrefix mounts the content routes, e.g. "/api". Empty mounts them at the root.
	APIPrefix   string
	CORS        CORSConfig
	AdminToken  keybackend.AdminToken
	Revalidator Revalidator
	// Objects serves the self-hosted object endpoint. Nil when objects live
	// in an external bucket.
	Objects *ObjectHandler
}

// Handler provides HTTP handlers for the content API.
type Handler struct {
	config   HandlerConfig
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.Revalidator == nil {
		cfg.Revalidator = NopRevalidator{}
	}
	return &Handler{
		config:   cfg,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns an http.Handler serving the content API under APIPrefix,
// the object endpoint under /objects when configured, and /healthz.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/healthz", h.handleHealth)

	if h.config.Objects != nil {
		r.Mount(ObjectsPath, h.config.Objects.Router())
	}

	prefix := "/" + strings.Trim(h.config.APIPrefix, "/")
	if prefix == "/" {
		h.routes(r)
	} else {
		r.Route(prefix, h.routes)
	}

	return r
}

func (h *Handler) routes(r chi.Router) {
	r.Route("/blogs", func(r chi.Router) {
		r.Get("/", h.handleListBlogs)
		r.Post("/", h.handleCreateBlog)
		r.Get("/{slug}", h.handleGetBlog)
		r.Delete("/{slug}", h.handleDeleteBlog)
		// An empty slug still reaches the handler so it can answer 400.
		r.Delete("/", h.handleDeleteBlog)
	})

	r.Route("/gallery", func(r chi.Router) {
		r.Get("/", h.handleListGallery)
		r.Post("/", h.handleCreateGalleryItem)
		r.Post("/upload-url", h.handleUploadURL)
		r.Post("/multi-upload", h.handleMultiUpload)
		r.Put("/multi-upload", h.handleCompleteUploads)
		r.Post("/cleanup", h.handleCleanup)
		r.Post("/fix-invalid", h.handleFixInvalid)
		r.Delete("/{id}", h.handleDeleteGalleryItem)
	})

	r.Post("/auth/verify", h.handleVerifyToken)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/", h.handleAnalytics)
		r.Post("/track", h.handleTrack)
		r.Post("/reset", h.handleResetAnalytics)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// revalidate signals the page paths affected by a successful write.
func (h *Handler) revalidate(r *http.Request, paths ...string) {
	h.config.Revalidator.Revalidate(r.Context(), paths...)
}
