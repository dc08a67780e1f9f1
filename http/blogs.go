package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sagarc03/folio"
)

type createBlogRequest struct {
	tokenPayload
	Title   string `json:"title"`
	Date    string `json:"date,omitempty"`
	Excerpt string `json:"excerpt,omitempty"`
	Body    string `json:"body"`
}

func (h *Handler) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.service.ListBlogs(r.Context())
	if err != nil {
		HandleError(w, err, "")
		return
	}
	_ = WriteJSON(w, http.StatusOK, blogs)
}

func (h *Handler) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetBlog(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		HandleError(w, err, "")
		return
	}
	_ = WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	var req createBlogRequest
	if !h.decodeAdmin(w, r, &req) {
		return
	}

	post, err := h.service.CreateBlog(r.Context(), folio.BlogInput{
		Title:   req.Title,
		Date:    req.Date,
		Excerpt: req.Excerpt,
		Body:    req.Body,
	})
	if err != nil {
		HandleError(w, err, "")
		return
	}

	h.revalidate(r, "/blogs", "/blogs/"+post.Slug, "/")
	_ = WriteJSON(w, http.StatusCreated, post)
}

func (h *Handler) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		WriteError(w, http.StatusBadRequest, "Missing blog slug")
		return
	}
	if !h.adminQuery(w, r) {
		return
	}

	if err := h.service.DeleteBlog(r.Context(), slug); err != nil {
		HandleError(w, err, "")
		return
	}

	h.revalidate(r, "/blogs", "/blogs/"+slug, "/")
	_ = WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
