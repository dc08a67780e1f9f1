package http

import (
	"encoding/json"
	"net/http"

	"github.com/sagarc03/folio"
)

const analyticsCacheControl = "public, max-age=60, stale-while-revalidate=30"

type trackRequest struct {
	Type     folio.ViewKind `json:"type"`
	Path     string         `json:"path,omitempty"`
	Slug     string         `json:"slug,omitempty"`
	IsUnique bool           `json:"isUnique,omitempty"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Analytics(r.Context())
	if err != nil {
		HandleError(w, err, "Failed to fetch analytics")
		return
	}
	w.Header().Set("Cache-Control", analyticsCacheControl)
	_ = WriteJSON(w, http.StatusOK, data)
}

func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	key := req.Path
	if req.Type == folio.ViewBlog {
		key = req.Slug
	}

	if err := h.service.TrackView(r.Context(), req.Type, key, req.IsUnique); err != nil {
		HandleError(w, err, "Failed to track analytics")
		return
	}
	_ = WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleResetAnalytics(w http.ResponseWriter, r *http.Request) {
	if !h.adminHeaderOnly(w, r) {
		return
	}

	if err := h.service.ResetAnalytics(r.Context()); err != nil {
		HandleError(w, err, "Failed to reset analytics")
		return
	}
	_ = WriteJSON(w, http.StatusOK, successResponse{Success: true, Message: "Analytics reset successfully"})
}

func (h *Handler) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	if !h.requireConfigured(w) {
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if req.Token == "" {
		WriteError(w, http.StatusBadRequest, "Token is required")
		return
	}
	if !h.config.AdminToken.Verify(req.Token) {
		WriteError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	_ = WriteJSON(w, http.StatusOK, successResponse{Success: true, Message: "Token verified successfully"})
}
