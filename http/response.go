package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/folio"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("failed to encode error response", "err", err)
	}
}

// HandleError writes the response for err. Client errors carry the message of
// the *folio.Error in the chain. Server errors use fallback when it is set,
// otherwise the most specific message available.
func HandleError(w http.ResponseWriter, err error, fallback string) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		slog.Error("request error", "err", err)
	} else {
		slog.Debug("request rejected", "err", err, "status", code)
	}

	message := clientMessage(err)
	if code >= http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	WriteError(w, code, message)
}

// StatusCode maps an error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, folio.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, folio.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, folio.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func clientMessage(err error) string {
	var fe *folio.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	var up *folio.UpstreamError
	if errors.As(err, &up) {
		return up.Error()
	}
	switch {
	case errors.Is(err, folio.ErrNotFound):
		return "Not found"
	case errors.Is(err, folio.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, folio.ErrInvalidInput):
		return "Invalid request"
	}
	return "Internal server error"
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
