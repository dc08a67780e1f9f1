package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/filesystem"
)

// ObjectsPath is where the self-hosted object endpoint is mounted. Presigned
// URLs are signed over the full path including this prefix.
const ObjectsPath = "/objects"

type objectResponse struct {
	ObjectName string `json:"objectName"`
	Size       int64  `json:"size"`
	ETag       string `json:"etag"`
}

// ObjectHandler serves uploaded objects from local disk. Reads are public;
// writes and deletes need a presigned URL.
type ObjectHandler struct {
	store    *filesystem.Store
	verifier RequestVerifier
}

func NewObjectHandler(store *filesystem.Store, verifier RequestVerifier) *ObjectHandler {
	return &ObjectHandler{store: store, verifier: verifier}
}

func (h *ObjectHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/*", h.handleGet)
	r.Head("/*", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(SignatureMiddleware(h.verifier))
		r.Put("/*", h.handlePut)
		r.Delete("/*", h.handleDelete)
	})
	return r
}

func objectName(r *http.Request) (string, bool) {
	name := chi.URLParam(r, "*")
	return name, folio.IsValidObjectName(name)
}

func (h *ObjectHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	name, ok := objectName(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid object name")
		return
	}

	content, info, err := h.store.Open(r.Context(), name)
	if err != nil {
		HandleError(w, err, "")
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", info.ContentType)
	http.ServeContent(w, r, name, info.ModTime, content)
}

func (h *ObjectHandler) handlePut(w http.ResponseWriter, r *http.Request) {
	name, ok := objectName(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid object name")
		return
	}

	res, err := h.store.Write(r.Context(), name, r.Body)
	if err != nil {
		HandleError(w, err, "")
		return
	}

	w.Header().Set("ETag", `"`+res.ETag+`"`)
	_ = WriteJSON(w, http.StatusOK, objectResponse{ObjectName: name, Size: res.BytesWritten, ETag: res.ETag})
}

func (h *ObjectHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	name, ok := objectName(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid object name")
		return
	}

	if err := h.store.Delete(r.Context(), name); err != nil {
		HandleError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
