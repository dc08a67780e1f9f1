package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/database"
	foliohttp "github.com/sagarc03/folio/http"
	"github.com/sagarc03/folio/keybackend"
	"github.com/sagarc03/folio/signer"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for folio.
type Config struct {
	Env       string               `mapstructure:"env"`
	Server    ServerConfig         `mapstructure:"server"`
	API       APIConfig            `mapstructure:"api"`
	Content   ContentConfig        `mapstructure:"content"`
	Storage   signer.Config        `mapstructure:"storage"`
	Documents DocumentsConfig      `mapstructure:"documents"`
	Auth      AuthConfig           `mapstructure:"auth"`
	CORS      foliohttp.CORSConfig `mapstructure:"cors"`
	Log       LogConfig            `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// APIConfig holds the content API mount point.
type APIConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// ContentConfig controls reads, caching and image validation.
type ContentConfig struct {
	Source            string        `mapstructure:"source" validate:"required,oneof=remote local"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" validate:"min=0"`
	AnalyticsCacheTTL time.Duration `mapstructure:"analytics_cache_ttl" validate:"min=0"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout" validate:"min=0"`
	ValidateImages    bool          `mapstructure:"validate_images"`
	RevalidateURL     string        `mapstructure:"revalidate_url" validate:"omitempty,url"`
}

// DocumentsConfig selects where the JSON index documents live.
type DocumentsConfig struct {
	// Type is "object" (the storage bucket, through signed URLs),
	// "filesystem", or one of the database backends.
	Type string `mapstructure:"type" validate:"required,oneof=object filesystem sqlite postgres badger"`
	// DSN is the database connection string, or the data directory for
	// filesystem and badger. Empty filesystem DSN falls back to storage.path.
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table" validate:"omitempty,max=63"`
}

// Database returns the database.Config for the database backends.
func (d DocumentsConfig) Database() database.Config {
	return database.Config{Type: d.Type, DSN: d.DSN, Table: d.Table}
}

// AuthConfig holds the admin token and the signing keys of the /objects mount.
type AuthConfig struct {
	keybackend.TokenConfig `mapstructure:",squash"`
	Keys                   keybackend.KeysConfig `mapstructure:"keys"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// ContentSource returns the parsed content.source.
func (c *Config) ContentSource() folio.ContentSource {
	return folio.ContentSource(c.Content.Source)
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":           "server.port",
	"env":            "env",
	"log-level":      "log.level",
	"storage-type":   "storage.type",
	"storage-path":   "storage.path",
	"bucket":         "storage.bucket",
	"documents-type": "documents.type",
	"documents-dsn":  "documents.dsn",
	"content-source": "content.source",
	"api-prefix":     "api.prefix",
}

// legacyEnv lists environment names accepted besides the FOLIO_ ones. The
// first variable that is set wins.
var legacyEnv = map[string][]string{
	"auth.admin_token":                  {"ADMIN_TOKEN", "BLOG_ADMIN_TOKEN"},
	"storage.bucket":                    {"GCS_BUCKET_NAME"},
	"storage.gcs.service_account_email": {"GCS_SERVICE_ACCOUNT_EMAIL"},
	"storage.gcs.private_key":           {"GCS_PRIVATE_KEY"},
	"content.source":                    {"CONTENT_SOURCE"},
	"content.revalidate_url":            {"REVALIDATE_URL"},
	"storage.gcs.credentials_file":      {"GOOGLE_APPLICATION_CREDENTIALS"},
}

const envPrefix = "FOLIO"

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// bindLegacyEnv binds each key to its FOLIO_ name followed by the legacy
// names. An explicit binding replaces AutomaticEnv for that key, so the
// prefixed name is listed first.
func bindLegacyEnv(v *viper.Viper) {
	for key, names := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", 5708)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("api.prefix", "/api")

	v.SetDefault("content.source", string(folio.SourceRemote))
	v.SetDefault("content.cache_ttl", 300*time.Second)
	v.SetDefault("content.analytics_cache_ttl", 60*time.Second)
	v.SetDefault("content.probe_timeout", 5*time.Second)
	v.SetDefault("content.validate_images", false)
	v.SetDefault("content.revalidate_url", "")

	v.SetDefault("storage.type", "gcs")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.gcs.service_account_email", "")
	v.SetDefault("storage.gcs.private_key", "")
	v.SetDefault("storage.gcs.credentials_file", "")

	v.SetDefault("documents.type", "object")
	v.SetDefault("documents.dsn", "")
	v.SetDefault("documents.table", database.DefaultTable)

	v.SetDefault("auth.admin_token", "")
	v.SetDefault("auth.admin_token_file", "")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-Admin-Token"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// loadDotenv loads .env from the working directory into the process
// environment. Variables that are already set are left alone.
func loadDotenv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error reading .env file", "err", err)
	}
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env (.env included) >
// config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables, after .env has been loaded
	loadDotenv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
