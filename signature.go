package folio

import (
	"crypto/hmac"
	"fmt"
	"net/http"
	"strconv"
	"time"

	stowrysign "github.com/sagarc03/stowry-go"
)

// Query parameters of a self-hosted presigned object URL.
const (
	CredentialParam = "X-Stowry-Credential"
	DateParam       = "X-Stowry-Date"
	ExpiresParam    = "X-Stowry-Expires"
	SignatureParam  = "X-Stowry-Signature"

	MaxExpiresSeconds = 604800 // 7 days
)

// SecretStore resolves the secret key paired with an access key.
type SecretStore interface {
	Lookup(accessKey string) (secretKey string, err error)
}

// SignatureVerifier checks presigned URLs issued for the /objects mount. The
// signature covers the method, the request path, the signing time and the
// validity window.
type SignatureVerifier struct {
	store SecretStore
	now   func() time.Time
}

// NewSignatureVerifier creates a verifier backed by store.
func NewSignatureVerifier(store SecretStore) *SignatureVerifier {
	return &SignatureVerifier{store: store, now: time.Now}
}

// Verify returns nil when r carries a valid, unexpired signature. Every
// failure wraps ErrUnauthorized.
func (v *SignatureVerifier) Verify(r *http.Request) error {
	query := r.URL.Query()
	credential := query.Get(CredentialParam)
	date := query.Get(DateParam)
	expiresRaw := query.Get(ExpiresParam)
	signature := query.Get(SignatureParam)

	if credential == "" || date == "" || expiresRaw == "" || signature == "" {
		return fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
	}

	timestamp, err := strconv.ParseInt(date, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", DateParam, ErrUnauthorized)
	}

	expires, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil || expires <= 0 || expires > MaxExpiresSeconds {
		return fmt.Errorf("invalid expires: must be between 1 and %d: %w", MaxExpiresSeconds, ErrUnauthorized)
	}

	if v.now().Unix() > timestamp+expires {
		return fmt.Errorf("signature expired: %w", ErrUnauthorized)
	}

	secret, err := v.store.Lookup(credential)
	if err != nil {
		return err
	}

	expected := stowrysign.Sign(secret, r.Method, r.URL.Path, timestamp, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return nil
}
