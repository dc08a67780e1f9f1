package clientcli

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultEndpoint is the address `folio serve` listens on by default.
	DefaultEndpoint = "http://localhost:5708"
	// DefaultAPIPrefix matches the server's default api.prefix.
	DefaultAPIPrefix = "/api"
)

// Environment variables read by the CLI.
const (
	EnvEndpoint   = "FOLIO_ENDPOINT"
	EnvAPIPrefix  = "FOLIO_API_PREFIX"
	EnvAdminToken = "FOLIO_ADMIN_TOKEN"
	EnvProfile    = "FOLIO_PROFILE"
	EnvConfigPath = "FOLIO_CLI_CONFIG"
)

// Profile is one folio server the CLI can talk to.
type Profile struct {
	Name       string `yaml:"name"`
	Endpoint   string `yaml:"endpoint"`
	APIPrefix  string `yaml:"api_prefix,omitempty"`
	AdminToken string `yaml:"admin_token,omitempty"`
	Default    bool   `yaml:"default,omitempty"`
}

// ConfigFile is the profiles file, ~/.folio/config.yaml by default.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) find(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

// GetProfile returns the named profile, or the default one when name is "".
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if name == "" {
		return c.GetDefaultProfile()
	}
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	i := c.find(name)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile marked default, or the first one.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	i := max(slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Default }), 0)
	return &c.Profiles[i], nil
}

// DefaultName returns the name GetDefaultProfile resolves to, or "".
func (c *ConfigFile) DefaultName() string {
	if p, err := c.GetDefaultProfile(); err == nil {
		return p.Name
	}
	return ""
}

// AddProfile appends p. A profile with the same name yields ErrProfileExists.
func (c *ConfigFile) AddProfile(p Profile) error {
	if c.find(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// PutProfile replaces the profile named p.Name, or appends p.
func (c *ConfigFile) PutProfile(p Profile) {
	if i := c.find(p.Name); i >= 0 {
		c.Profiles[i] = p
		return
	}
	c.Profiles = append(c.Profiles, p)
}

func (c *ConfigFile) RemoveProfile(name string) error {
	i := c.find(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	c.Profiles = slices.Delete(c.Profiles, i, i+1)
	return nil
}

// SetDefault makes name the only default profile.
func (c *ConfigFile) SetDefault(name string) error {
	if c.find(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	for i := range c.Profiles {
		c.Profiles[i].Default = c.Profiles[i].Name == name
	}
	return nil
}

// Save writes the file readable by the owner only, since it holds admin
// tokens. The write goes through a temp file so a failed save never leaves a
// truncated profiles file behind.
func (c *ConfigFile) Save(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save profiles: encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save profiles: %w", err)
	}
	return nil
}

// LoadConfigFile reads the profiles file at path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("load profiles %s: %w", path, err)
	}
	return &cfg, nil
}

// DefaultConfigPath returns ~/.folio/config.yaml, or "" without a home
// directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".folio", "config.yaml")
}

// Config is the resolved connection to one server.
type Config struct {
	Endpoint   string
	APIPrefix  string
	AdminToken string
}

// WithDefaults returns a copy with DefaultEndpoint and DefaultAPIPrefix
// filled in.
func (c *Config) WithDefaults() *Config {
	return &Config{
		Endpoint:   cmp.Or(c.Endpoint, DefaultEndpoint),
		APIPrefix:  cmp.Or(c.APIPrefix, DefaultAPIPrefix),
		AdminToken: c.AdminToken,
	}
}

// ValidateWithAuth reports ErrTokenRequired for a blank admin token.
func (c *Config) ValidateWithAuth() error {
	if strings.TrimSpace(c.AdminToken) == "" {
		return ErrTokenRequired
	}
	return nil
}

func ConfigFromProfile(p *Profile) *Config {
	if p == nil {
		return &Config{}
	}
	return &Config{Endpoint: p.Endpoint, APIPrefix: p.APIPrefix, AdminToken: p.AdminToken}
}

// ConfigFromEnv reads FOLIO_ENDPOINT, FOLIO_API_PREFIX and FOLIO_ADMIN_TOKEN.
func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:   os.Getenv(EnvEndpoint),
		APIPrefix:  os.Getenv(EnvAPIPrefix),
		AdminToken: os.Getenv(EnvAdminToken),
	}
}

func ProfileFromEnv() string { return os.Getenv(EnvProfile) }

func ConfigPathFromEnv() string { return os.Getenv(EnvConfigPath) }

// MergeConfig layers configs so that later non-empty values win.
func MergeConfig(configs ...*Config) *Config {
	merged := &Config{}
	for _, c := range slices.Backward(configs) {
		if c == nil {
			continue
		}
		merged.Endpoint = cmp.Or(merged.Endpoint, c.Endpoint)
		merged.APIPrefix = cmp.Or(merged.APIPrefix, c.APIPrefix)
		merged.AdminToken = cmp.Or(merged.AdminToken, c.AdminToken)
	}
	return merged
}
