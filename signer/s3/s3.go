// Package s3 signs URLs for Amazon S3 and S3-compatible stores with the
// aws-sdk-go-v2 presign client.
package s3

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/signer/internal/baseurl"
)

const DefaultExpires = 15 * time.Minute

// Config holds S3 connection options, decoded from storage.options.
type Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	// PublicURL is the base objects are read from. Defaults to the
	// endpoint plus bucket, or the virtual-hosted AWS URL.
	PublicURL string `mapstructure:"public_url"`
}

// Signer implements folio.Signer using S3 presigned requests.
type Signer struct {
	bucket    string
	presigner *s3.PresignClient
	public    baseurl.Base
}

// New creates a Signer. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*Signer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("new s3 signer: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	loadOpts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("new s3 signer: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = cfg.Endpoint + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	public, err := baseurl.Parse(publicURL)
	if err != nil {
		return nil, fmt.Errorf("new s3 signer: %w", err)
	}

	return &Signer{
		bucket:    cfg.Bucket,
		presigner: s3.NewPresignClient(client),
		public:    public,
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
	withExpiry := s3.WithPresignExpires(expires)
	bucket, key := aws.String(s.bucket), aws.String(req.ObjectName)

	var (
		out *v4.PresignedHTTPRequest
		err error
	)
	switch strings.ToUpper(req.Method) {
	case http.MethodPut:
		input := &s3.PutObjectInput{Bucket: bucket, Key: key}
		if req.ContentType != "" {
			input.ContentType = aws.String(req.ContentType)
		}
		out, err = s.presigner.PresignPutObject(ctx, input, withExpiry)
	case http.MethodDelete:
		out, err = s.presigner.PresignDeleteObject(ctx, &s3.DeleteObjectInput{Bucket: bucket, Key: key}, withExpiry)
	case http.MethodGet:
		out, err = s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: bucket, Key: key}, withExpiry)
	case http.MethodHead:
		out, err = s.presigner.PresignHeadObject(ctx, &s3.HeadObjectInput{Bucket: bucket, Key: key}, withExpiry)
	default:
		return folio.SignedURL{}, folio.Invalid(fmt.Sprintf("unsupported method %q", req.Method))
	}
	if err != nil {
		return folio.SignedURL{}, fmt.Errorf("sign url %s %s: %w", req.Method, req.ObjectName, err)
	}

	return folio.SignedURL{
		SignedURL: out.URL,
		PublicURL: s.PublicURL(req.ObjectName),
	}, nil
}

func (s *Signer) PublicURL(objectName string) string {
	return s.public.Join(objectName)
}

func (s *Signer) ObjectName(rawURL string) (string, bool) {
	return s.public.ObjectName(rawURL)
}
