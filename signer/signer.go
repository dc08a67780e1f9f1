// Package signer builds the folio.Signer for the configured storage backend.
package signer

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/keybackend"
	"github.com/sagarc03/folio/signer/gcs"
	"github.com/sagarc03/folio/signer/minio"
	"github.com/sagarc03/folio/signer/s3"
	"github.com/sagarc03/folio/signer/stowry"
)

// ObjectsPrefix is the path folio mounts its own object endpoint under when
// it stores objects on the local filesystem.
const ObjectsPrefix = "/objects"

// Config selects and configures the storage backend.
type Config struct {
	Type   string `mapstructure:"type" validate:"required,oneof=gcs s3 minio stowry filesystem"`
	Bucket string `mapstructure:"bucket"`
	// Path is the data directory of the filesystem backend.
	Path string    `mapstructure:"path"`
	GCS  GCSConfig `mapstructure:"gcs"`
	// Options holds backend specific settings for s3, minio, stowry and
	// filesystem, decoded into that backend's Config.
	Options map[string]any `mapstructure:"options"`
}

// GCSConfig holds the service account used to sign Cloud Storage URLs.
// Inline values win over the key file.
type GCSConfig struct {
	ServiceAccountEmail string `mapstructure:"service_account_email"`
	PrivateKey          string `mapstructure:"private_key"`
	CredentialsFile     string `mapstructure:"credentials_file"`
}

// New creates the signer for cfg.Type.
//
// For the filesystem backend, options.endpoint is the public base URL of
// this server; objects are signed for its /objects mount with the first
// configured access key pair in keys.
func New(ctx context.Context, cfg Config, keys keybackend.KeysConfig) (folio.Signer, error) {
	switch cfg.Type {
	case "gcs":
		return newGCS(cfg)

	case "s3":
		var opts s3.Config
		if err := decode(cfg, &opts); err != nil {
			return nil, err
		}
		if opts.Bucket == "" {
			opts.Bucket = cfg.Bucket
		}
		s, err := s3.New(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "minio":
		var opts minio.Config
		if err := decode(cfg, &opts); err != nil {
			return nil, err
		}
		if opts.Bucket == "" {
			opts.Bucket = cfg.Bucket
		}
		s, err := minio.New(opts)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "stowry", "filesystem":
		var opts stowry.Config
		if err := decode(cfg, &opts); err != nil {
			return nil, err
		}
		if cfg.Type == "filesystem" {
			if opts.Prefix == "" {
				opts.Prefix = ObjectsPrefix
			}
			if opts.AccessKey == "" {
				pair, ok, err := keybackend.Primary(keys)
				if err != nil {
					return nil, fmt.Errorf("new signer: %w", err)
				}
				if ok {
					opts.AccessKey, opts.SecretKey = pair.AccessKey, pair.SecretKey
				}
			}
		}
		s, err := stowry.New(opts)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("new signer: unsupported storage type: %s", cfg.Type)
	}
}

func newGCS(cfg Config) (folio.Signer, error) {
	gcsCfg := gcs.Config{
		Bucket:              cfg.Bucket,
		ServiceAccountEmail: cfg.GCS.ServiceAccountEmail,
		PrivateKey:          cfg.GCS.PrivateKey,
	}

	if cfg.GCS.CredentialsFile != "" && (gcsCfg.ServiceAccountEmail == "" || gcsCfg.PrivateKey == "") {
		sa, err := keybackend.LoadServiceAccount(cfg.GCS.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("new signer: %w", err)
		}
		if gcsCfg.ServiceAccountEmail == "" {
			gcsCfg.ServiceAccountEmail = sa.ClientEmail
		}
		if gcsCfg.PrivateKey == "" {
			gcsCfg.PrivateKey = sa.PrivateKey
		}
	}

	s, err := gcs.New(gcsCfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func decode(cfg Config, out any) error {
	if err := mapstructure.Decode(cfg.Options, out); err != nil {
		return fmt.Errorf("new signer: decode %s options: %w", cfg.Type, err)
	}
	return nil
}
