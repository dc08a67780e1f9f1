// Package config provides configuration loading and validation for folio.
//
// The package handles YAML configuration files, a .env file, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (FOLIO_ prefix), including those from .env
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with FOLIO_ prefix:
//   - server.port → FOLIO_SERVER_PORT
//   - documents.type → FOLIO_DOCUMENTS_TYPE
//   - auth.admin_token → FOLIO_AUTH_ADMIN_TOKEN
//
// The variable names used by earlier deployments are read as well:
//   - ADMIN_TOKEN, then BLOG_ADMIN_TOKEN → auth.admin_token
//   - GCS_BUCKET_NAME → storage.bucket
//   - GCS_SERVICE_ACCOUNT_EMAIL, GCS_PRIVATE_KEY → storage.gcs.*
//   - CONTENT_SOURCE → content.source
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port and timeouts
//   - API: the content API mount prefix
//   - Content: source (remote/local), cache TTLs, image validation, revalidation hook
//   - Storage: signer backend (gcs, s3, minio, stowry, filesystem) and its options
//   - Documents: where index documents live (object, filesystem, sqlite, postgres, badger)
//   - Auth: admin token and the access keys of the /objects mount
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
