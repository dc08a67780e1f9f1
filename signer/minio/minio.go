// Package minio signs URLs for MinIO and other S3-compatible servers with
// minio-go.
package minio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/signer/internal/baseurl"
)

const DefaultExpires = 15 * time.Minute

// Config holds MinIO connection options, decoded from storage.options.
type Config struct {
	Bucket string `mapstructure:"bucket"`
	// Endpoint is the server URL, e.g. http://localhost:9000. The scheme
	// selects TLS.
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PublicURL string `mapstructure:"public_url"`
}

// Signer implements folio.Signer with minio-go presigned URLs.
type Signer struct {
	client *minio.Client
	bucket string
	public baseurl.Base
}

func New(cfg Config) (*Signer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("new minio signer: bucket is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("new minio signer: endpoint is required")
	}

	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("new minio signer: invalid endpoint %q", cfg.Endpoint)
	}

	// Presigning with a fixed region avoids a bucket location lookup.
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: endpoint.Scheme == "https",
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("new minio signer: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	public, err := baseurl.Parse(publicURL)
	if err != nil {
		return nil, fmt.Errorf("new minio signer: %w", err)
	}

	return &Signer{client: client, bucket: cfg.Bucket, public: public}, nil
}

func (s *Signer) SignURL(ctx context.Context, req folio.SignRequest) (folio.SignedURL, error) {
	if err := ctx.Err(); err != nil {
		return folio.SignedURL{}, fmt.Errorf("sign url: %w", err)
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

	u, err := s.client.Presign(ctx, method, s.bucket, req.ObjectName, expires, url.Values{})
	if err != nil {
		return folio.SignedURL{}, fmt.Errorf("sign url %s %s: %w", method, req.ObjectName, err)
	}

	return folio.SignedURL{
		SignedURL: u.String(),
		PublicURL: s.PublicURL(req.ObjectName),
	}, nil
}

func (s *Signer) PublicURL(objectName string) string {
	return s.public.Join(objectName)
}

func (s *Signer) ObjectName(rawURL string) (string, bool) {
	return s.public.ObjectName(rawURL)
}
