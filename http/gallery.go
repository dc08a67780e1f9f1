package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sagarc03/folio"
)

type createGalleryRequest struct {
	tokenPayload
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tags        any    `json:"tags,omitempty"`
	ImageURL    string `json:"imageUrl"`
	ObjectPath  string `json:"objectPath,omitempty"`
	Featured    *bool  `json:"featured,omitempty"`
	Validate    bool   `json:"validate,omitempty"`
}

type uploadURLRequest struct {
	tokenPayload
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
}

type uploadImage struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Tags        any    `json:"tags,omitempty"`
	Featured    bool   `json:"featured,omitempty"`
}

type multiUploadRequest struct {
	tokenPayload
	Images []uploadImage `json:"images" validate:"dive"`
}

type completeUploadsRequest struct {
	tokenPayload
	CompletedUploads []folio.CompletedUpload `json:"completedUploads"`
}

type multiUploadResponse struct {
	Uploads []folio.Upload `json:"uploads"`
}

type completeUploadsResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Items   []folio.GalleryItem `json:"items"`
}

type cleanupResponse struct {
	Success bool `json:"success"`
	folio.CleanupReport
	Message string `json:"message"`
}

type fixInvalidResponse struct {
	Success        bool   `json:"success,omitempty"`
	Message        string `json:"message"`
	TotalItems     *int   `json:"totalItems,omitempty"`
	Removed        *int   `json:"removed,omitempty"`
	Remaining      *int   `json:"remaining,omitempty"`
	TotalProcessed *int   `json:"totalProcessed,omitempty"`
}

// handleListGallery returns the full list, or a page when page or limit is
// given, or the featured items when featured=true.
func (h *Handler) handleListGallery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	if q.Get("featured") == "true" {
		items, err := h.service.FeaturedGallery(ctx, queryInt(q.Get("limit")))
		if err != nil {
			HandleError(w, err, "")
			return
		}
		_ = WriteJSON(w, http.StatusOK, items)
		return
	}

	if q.Has("page") || q.Has("limit") {
		page, err := h.service.GalleryPage(ctx, queryInt(q.Get("page")), queryInt(q.Get("limit")))
		if err != nil {
			HandleError(w, err, "")
			return
		}
		_ = WriteJSON(w, http.StatusOK, page)
		return
	}

	items, err := h.service.ListGallery(ctx)
	if err != nil {
		HandleError(w, err, "")
		return
	}
	_ = WriteJSON(w, http.StatusOK, items)
}

// queryInt parses a positive integer; anything else yields 0, which the
// store replaces with its default.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (h *Handler) handleCreateGalleryItem(w http.ResponseWriter, r *http.Request) {
	var req createGalleryRequest
	if !h.decodeAdmin(w, r, &req) {
		return
	}

	item, err := h.service.CreateGalleryItem(r.Context(), folio.GalleryInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		ImageURL:    req.ImageURL,
		ObjectPath:  req.ObjectPath,
		Featured:    req.Featured,
		Validate:    req.Validate,
	})
	if err != nil {
		HandleError(w, err, "")
		return
	}

	h.revalidate(r, "/gallery", "/")
	_ = WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleDeleteGalleryItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Missing gallery id")
		return
	}
	if !h.adminQuery(w, r) {
		return
	}

	if err := h.service.DeleteGalleryItem(r.Context(), id); err != nil {
		HandleError(w, err, "")
		return
	}

	h.revalidate(r, "/gallery", "/")
	_ = WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if !h.decodeAdmin(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "filename and contentType are required")
		return
	}

	ticket, err := h.service.SignUpload(r.Context(), req.Filename, req.ContentType)
	if err != nil {
		HandleError(w, err, "")
		return
	}
	_ = WriteJSON(w, http.StatusOK, ticket)
}

func (h *Handler) handleMultiUpload(w http.ResponseWriter, r *http.Request) {
	var req multiUploadRequest
	if !h.decodeAdmin(w, r, &req) {
		return
	}
	if len(req.Images) == 0 {
		WriteError(w, http.StatusBadRequest, "images array is required and must not be empty")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "Each image must have filename, contentType, and title")
		return
	}

	reqs := make([]folio.UploadRequest, 0, len(req.Images))
	for _, img := range req.Images {
		reqs = append(reqs, folio.UploadRequest{
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Title:       img.Title,
			Description: img.Description,
			Tags:        img.Tags,
			Featured:    img.Featured,
		})
	}

	uploads, err := h.service.SignUploads(r.Context(), reqs)
	if err != nil {
		HandleError(w, err, "")
		return
	}
	_ = WriteJSON(w, http.StatusOK, multiUploadResponse{Uploads: uploads})
}

func (h *Handler) handleCompleteUploads(w http.ResponseWriter, r *http.Request) {
	var req completeUploadsRequest
	if !h.decodeAdmin(w, r, &req) {
		return
	}
	if req.CompletedUploads == nil {
		WriteError(w, http.StatusBadRequest, "completedUploads array is required")
		return
	}

	items, err := h.service.CompleteUploads(r.Context(), req.CompletedUploads)
	if err != nil {
		HandleError(w, err, "")
		return
	}

	h.revalidate(r, "/gallery", "/")
	_ = WriteJSON(w, http.StatusOK, completeUploadsResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully saved %d gallery items", len(items)),
		Items:   items,
	})
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if !h.adminHeaderOnly(w, r) {
		return
	}

	report, err := h.service.CleanupGallery(r.Context())
	if err != nil {
		HandleError(w, err, "Failed to clean up gallery")
		return
	}

	if report.BrokenItems > 0 {
		h.revalidate(r, "/gallery", "/")
	}
	_ = WriteJSON(w, http.StatusOK, cleanupResponse{
		Success:       true,
		CleanupReport: report,
		Message:       report.Message(),
	})
}

func (h *Handler) handleFixInvalid(w http.ResponseWriter, r *http.Request) {
	if !h.adminHeaderOnly(w, r) {
		return
	}

	report, err := h.service.FixInvalidGallery(r.Context(), r.URL.Query().Get("probe") == "true")
	if err != nil {
		HandleError(w, err, "")
		return
	}

	switch {
	case !report.Found:
		_ = WriteJSON(w, http.StatusOK, fixInvalidResponse{Message: "No gallery index found"})
	case report.Removed == 0:
		_ = WriteJSON(w, http.StatusOK, fixInvalidResponse{
			Message:    "No invalid items found",
			TotalItems: &report.TotalProcessed,
		})
	default:
		h.revalidate(r, "/gallery", "/", "/admin")
		_ = WriteJSON(w, http.StatusOK, fixInvalidResponse{
			Success:        true,
			Message:        fmt.Sprintf("Successfully removed %d invalid gallery items", report.Removed),
			Removed:        &report.Removed,
			Remaining:      &report.Remaining,
			TotalProcessed: &report.TotalProcessed,
		})
	}
}
