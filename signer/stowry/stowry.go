// Package stowry signs URLs for a Stowry-compatible object server using the
// stowry-go native signing scheme. folio's own /objects mount speaks the same
// scheme, so this signer also serves the filesystem storage backend.
package stowry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	stowrysign "github.com/sagarc03/stowry-go"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/signer/internal/baseurl"
)

const (
	DefaultExpires = 15 * time.Minute
	MaxExpires     = 7 * 24 * time.Hour
)

// Config holds Stowry connection options, decoded from storage.options.
type Config struct {
	// Endpoint is the server base URL, e.g. http://localhost:5708.
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// Prefix is the path objects are mounted under, e.g. "/objects".
	Prefix    string `mapstructure:"prefix"`
	PublicURL string `mapstructure:"public_url"`
}

// Signer implements folio.Signer with stowry-go presigned URLs.
type Signer struct {
	client *stowrysign.Client
	prefix string
	public baseurl.Base
}

func New(cfg Config) (*Signer, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("new stowry signer: endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, folio.NotConfigured("stowry access key is not configured")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	prefix := "/" + strings.Trim(cfg.Prefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = endpoint + prefix
	}
	public, err := baseurl.Parse(publicURL)
	if err != nil {
		return nil, fmt.Errorf("new stowry signer: %w", err)
	}

	return &Signer{
		client: stowrysign.NewClient(endpoint, cfg.AccessKey, cfg.SecretKey),
		prefix: prefix,
		public: public,
	}, nil
}

func (s *Signer) SignURL(ctx context.Context, req folio.SignRequest) (folio.SignedURL, error) {
	if err := ctx.Err(); err != nil {
		return folio.SignedURL{}, fmt.Errorf("sign url: %w", err)
	}

	if !folio.IsValidObjectName(req.ObjectName) {
		return folio.SignedURL{}, folio.Invalid("invalid object name")
	}

	expires := req.Expires
	if expires <= 0 {
		expires = DefaultExpires
	}
	if expires > MaxExpires {
		return folio.SignedURL{}, folio.Invalid("expiry exceeds 7 days")
	}
	seconds := int(expires / time.Second)
	key := s.prefix + "/" + req.ObjectName

	var signedURL string
	switch strings.ToUpper(req.Method) {
	case http.MethodPut:
		signedURL = s.client.PresignPut(key, seconds)
	case http.MethodDelete:
		signedURL = s.client.PresignDelete(key, seconds)
	case http.MethodGet:
		signedURL = s.client.PresignGet(key, seconds)
	default:
		return folio.SignedURL{}, folio.Invalid(fmt.Sprintf("unsupported method %q", req.Method))
	}

	return folio.SignedURL{
		SignedURL: signedURL,
		PublicURL: s.PublicURL(req.ObjectName),
	}, nil
}

func (s *Signer) PublicURL(objectName string) string {
	return s.public.Join(objectName)
}

func (s *Signer) ObjectName(rawURL string) (string, bool) {
	return s.public.ObjectName(rawURL)
}
