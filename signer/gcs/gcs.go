// Package gcs signs Google Cloud Storage V4 URLs (GOOG4-RSA-SHA256) with a
// service account key, without the Cloud Storage SDK.
package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/folio"
)

const (
	Host            = "storage.googleapis.com"
	Algorithm       = "GOOG4-RSA-SHA256"
	SignedHeaders   = "content-type;host"
	UnsignedPayload = "UNSIGNED-PAYLOAD"

	DateTimeFormat = "20060102T150405Z"
	DateFormat     = "20060102"

	DefaultExpires     = 15 * time.Minute
	MaxExpires         = 7 * 24 * time.Hour
	DefaultContentType = "application/octet-stream"
)

// ErrNotConfigured carries the message shown when signing is attempted
// without a bucket, service account email or private key.
var ErrNotConfigured = folio.NotConfigured("GCS credentials are not configured")

// Config holds the service account identity used for signing.
type Config struct {
	Bucket              string `mapstructure:"bucket"`
	ServiceAccountEmail string `mapstructure:"service_account_email"`
	// PrivateKey is a PEM encoded PKCS#8 or PKCS#1 RSA key. Literal "\n"
	// sequences are turned into newlines so the key fits in one env var.
	PrivateKey string `mapstructure:"private_key"`
}

// Signer implements folio.Signer for one bucket.
type Signer struct {
	bucket string
	email  string
	key    *rsa.PrivateKey
	host   string
	now    func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source used for X-Goog-Date.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// WithHost overrides the storage host.
func WithHost(host string) Option {
	return func(s *Signer) { s.host = host }
}

// New creates a Signer. Only the bucket is required: without an email or key
// the signer still resolves public URLs but SignURL fails with
// ErrNotConfigured. A key that is present but unparsable is an error.
func New(cfg Config, opts ...Option) (*Signer, error) {
	s := &Signer{
		bucket: strings.TrimSpace(cfg.Bucket),
		email:  strings.TrimSpace(cfg.ServiceAccountEmail),
		host:   Host,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.PrivateKey != "" {
		key, err := ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("new gcs signer: %w", err)
		}
		s.key = key
	}

	return s, nil
}

// ParsePrivateKey decodes a PEM RSA private key in PKCS#8 or PKCS#1 form.
func ParsePrivateKey(raw string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(strings.ReplaceAll(raw, `\n`, "\n")))
	if block == nil {
		return nil, errors.New("parse private key: no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("parse private key: not an RSA key")
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// Configured reports whether SignURL can succeed.
func (s *Signer) Configured() bool {
	return s.bucket != "" && s.email != "" && s.key != nil
}

// SignURL builds a V4 signed URL for req.
//
// The canonical request signs the content-type and host headers with an
// unsigned payload, so the client must send exactly req.ContentType and
// "x-goog-content-sha256: UNSIGNED-PAYLOAD".
func (s *Signer) SignURL(ctx context.Context, req folio.SignRequest) (folio.SignedURL, error) {
	if err := ctx.Err(); err != nil {
		return folio.SignedURL{}, fmt.Errorf("sign url: %w", err)
	}

	if !s.Configured() {
		return folio.SignedURL{}, ErrNotConfigured
	}

	if !folio.IsValidObjectName(req.ObjectName) {
		return folio.SignedURL{}, folio.Invalid("invalid object name")
	}

	method := strings.ToUpper(req.Method)
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
	default:
		return folio.SignedURL{}, folio.Invalid(fmt.Sprintf("unsupported method %q", req.Method))
	}

	expires := req.Expires
	if expires <= 0 {
		expires = DefaultExpires
	}
	if expires > MaxExpires {
		return folio.SignedURL{}, folio.Invalid("expiry exceeds 7 days")
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	now := s.now().UTC()
	timestamp := now.Format(DateTimeFormat)
	scope := now.Format(DateFormat) + "/auto/storage/goog4_request"

	query := canonicalQuery(map[string]string{
		"X-Goog-Algorithm":      Algorithm,
		"X-Goog-Credential":     s.email + "/" + scope,
		"X-Goog-Date":           timestamp,
		"X-Goog-Expires":        strconv.FormatInt(int64(expires/time.Second), 10),
		"X-Goog-SignedHeaders":  SignedHeaders,
		"X-Goog-Content-SHA256": UnsignedPayload,
	})
	uri := s.canonicalURI(req.ObjectName)

	canonicalRequest := strings.Join([]string{
		method,
		uri,
		query,
		"content-type:" + contentType + "\nhost:" + s.host + "\n",
		SignedHeaders,
		UnsignedPayload,
	}, "\n")

	requestHash := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := strings.Join([]string{
		Algorithm,
		timestamp,
		scope,
		hex.EncodeToString(requestHash[:]),
	}, "\n")

	digest := sha256.Sum256([]byte(stringToSign))
	signature, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return folio.SignedURL{}, fmt.Errorf("sign url: %w", err)
	}

	return folio.SignedURL{
		SignedURL: "https://" + s.host + uri + "?" + query + "&X-Goog-Signature=" + hex.EncodeToString(signature),
		PublicURL: s.PublicURL(req.ObjectName),
	}, nil
}

// PublicURL returns https://<host>/<bucket>/<objectName>.
func (s *Signer) PublicURL(objectName string) string {
	return "https://" + s.host + s.canonicalURI(objectName)
}

// ObjectName extracts the object name from a public or signed URL of this
// bucket. URLs on other hosts or buckets report false.
func (s *Signer) ObjectName(rawURL string) (string, bool) {
	if s.bucket == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if u.Hostname() != s.host && !strings.HasSuffix(u.Hostname(), Host) {
		return "", false
	}
	prefix := "/" + s.bucket + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(u.Path, prefix)
	if name == "" {
		return "", false
	}
	return name, true
}

func (s *Signer) canonicalURI(objectName string) string {
	segments := strings.Split(objectName, "/")
	for i, seg := range segments {
		segments[i] = escapeComponent(seg)
	}
	return "/" + escapeComponent(s.bucket) + "/" + strings.Join(segments, "/")
}

func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, encodeRFC3986(k)+"="+encodeRFC3986(params[k]))
	}
	return strings.Join(pairs, "&")
}

// escapeComponent leaves A-Z a-z 0-9 and -_.!~*'() as they are and
// percent-encodes every other byte.
func escapeComponent(s string) string {
	return escape(s, "-_.!~*'()")
}

// encodeRFC3986 leaves only the RFC 3986 unreserved set as it is.
func encodeRFC3986(s string) string {
	return escape(s, "-_.~")
}

func escape(s, keep string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || strings.IndexByte(keep, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}
