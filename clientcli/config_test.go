package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/folio/clientcli"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := (&clientcli.Config{}).WithDefaults()
	assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, clientcli.DefaultAPIPrefix, cfg.APIPrefix)

	cfg = (&clientcli.Config{Endpoint: "https://folio.example.com", APIPrefix: "/v1"}).WithDefaults()
	assert.Equal(t, "https://folio.example.com", cfg.Endpoint)
	assert.Equal(t, "/v1", cfg.APIPrefix)
}

func TestConfig_ValidateWithAuth(t *testing.T) {
	assert.NoError(t, (&clientcli.Config{AdminToken: "tok"}).ValidateWithAuth())
	assert.ErrorIs(t, (&clientcli.Config{}).ValidateWithAuth(), clientcli.ErrTokenRequired)
	assert.ErrorIs(t, (&clientcli.Config{AdminToken: "  "}).ValidateWithAuth(), clientcli.ErrTokenRequired)
}

func TestConfigFile_Profiles(t *testing.T) {
	cfg := &clientcli.ConfigFile{}

	_, err := cfg.GetProfile("")
	require.ErrorIs(t, err, clientcli.ErrNoProfiles)

	require.NoError(t, cfg.AddProfile(clientcli.Profile{Name: "local", Endpoint: "http://localhost:5708"}))
	require.NoError(t, cfg.AddProfile(clientcli.Profile{Name: "prod", Endpoint: "https://folio.example.com"}))
	assert.ErrorIs(t, cfg.AddProfile(clientcli.Profile{Name: "prod"}), clientcli.ErrProfileExists)

	p, err := cfg.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name)

	require.NoError(t, cfg.SetDefault("prod"))
	assert.Equal(t, "prod", cfg.DefaultName())
	assert.False(t, cfg.Profiles[0].Default)

	cfg.PutProfile(clientcli.Profile{Name: "prod", Endpoint: "https://new.example.com", Default: true})
	p, err = cfg.GetProfile("prod")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", p.Endpoint)
	assert.Len(t, cfg.Profiles, 2)

	_, err = cfg.GetProfile("staging")
	assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	assert.ErrorIs(t, cfg.SetDefault("staging"), clientcli.ErrProfileNotFound)

	require.NoError(t, cfg.RemoveProfile("local"))
	assert.ErrorIs(t, cfg.RemoveProfile("local"), clientcli.ErrProfileNotFound)
	assert.Len(t, cfg.Profiles, 1)
}

func TestConfigFile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{
		Name:       "prod",
		Endpoint:   "https://folio.example.com",
		APIPrefix:  "/api",
		AdminToken: "s3cret",
		Default:    true,
	}}}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := clientcli.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	p, err := loaded.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, &clientcli.Config{
		Endpoint:   "https://folio.example.com",
		APIPrefix:  "/api",
		AdminToken: "s3cret",
	}, clientcli.ConfigFromProfile(p))
}

func TestConfigFile_SaveOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: []\n"), 0o644))

	cfg := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "local", Endpoint: clientcli.DefaultEndpoint}}}
	require.NoError(t, cfg.Save(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, "config.yaml", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := clientcli.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "local", loaded.DefaultName())
}

func TestLoadConfigFile_Errors(t *testing.T) {
	_, err := clientcli.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [name: {"), 0o600))
	_, err = clientcli.LoadConfigFile(path)
	assert.Error(t, err)
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", AdminToken: "one"},
				{Endpoint: "http://b.com", APIPrefix: "/v1"},
			},
			expected: &clientcli.Config{Endpoint: "http://b.com", APIPrefix: "/v1", AdminToken: "one"},
		},
		{
			name: "empty strings and nil do not override",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", AdminToken: "one"},
				nil,
				{},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", AdminToken: "one"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clientcli.MergeConfig(tt.configs...))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("FOLIO_ENDPOINT", "http://env.example.com")
	t.Setenv("FOLIO_API_PREFIX", "/content")
	t.Setenv("FOLIO_ADMIN_TOKEN", "env-token")
	t.Setenv("FOLIO_PROFILE", "prod")

	cfg := clientcli.ConfigFromEnv()
	assert.Equal(t, "http://env.example.com", cfg.Endpoint)
	assert.Equal(t, "/content", cfg.APIPrefix)
	assert.Equal(t, "env-token", cfg.AdminToken)
	assert.Equal(t, "prod", clientcli.ProfileFromEnv())
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv("FOLIO_CLI_CONFIG", "/tmp/folio.yaml")
	assert.Equal(t, "/tmp/folio.yaml", clientcli.ConfigPathFromEnv())
}
