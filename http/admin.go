package http

import (
	"encoding/json"
	"net/http"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "x-admin-token"

const (
	msgTokenNotConfigured = "ADMIN_TOKEN environment variable not set"
	msgInvalidJSON        = "Invalid JSON payload"
	msgUnauthorized       = "Unauthorized"
)

// tokenPayload is embedded in every admin JSON body that may carry the token.
type tokenPayload struct {
	Token string `json:"token,omitempty"`
}

func (p tokenPayload) bodyToken() string {
	return p.Token
}

type bodyTokenCarrier interface {
	bodyToken() string
}

// requireConfigured answers 500 when no admin token is configured, so a
// broken deployment is not mistaken for a wrong password.
func (h *Handler) requireConfigured(w http.ResponseWriter) bool {
	if !h.config.AdminToken.Configured() {
		WriteError(w, http.StatusInternalServerError, msgTokenNotConfigured)
		return false
	}
	return true
}

// authorize checks the header token, falling back to fallback when the
// header is absent.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, fallback string) bool {
	token := fallback
	if values, ok := r.Header[http.CanonicalHeaderKey(AdminTokenHeader)]; ok && len(values) > 0 {
		token = values[0]
	}
	if !h.config.AdminToken.Verify(token) {
		WriteError(w, http.StatusUnauthorized, msgUnauthorized)
		return false
	}
	return true
}

// decodeAdmin runs the gate for JSON admin endpoints: token configured,
// body decodes into v, then header or body token matches.
func (h *Handler) decodeAdmin(w http.ResponseWriter, r *http.Request, v bodyTokenCarrier) bool {
	if !h.requireConfigured(w) {
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, msgInvalidJSON)
		return false
	}
	return h.authorize(w, r, v.bodyToken())
}

// adminHeaderOnly gates endpoints that take the token from the header alone.
func (h *Handler) adminHeaderOnly(w http.ResponseWriter, r *http.Request) bool {
	return h.requireConfigured(w) && h.authorize(w, r, "")
}

// adminQuery gates DELETE endpoints, which accept the token as a query
// parameter when the header is absent.
func (h *Handler) adminQuery(w http.ResponseWriter, r *http.Request) bool {
	return h.requireConfigured(w) && h.authorize(w, r, r.URL.Query().Get("token"))
}
