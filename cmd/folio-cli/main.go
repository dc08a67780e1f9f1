package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/clientcli"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	endpoint   string
	apiPrefix  string
	adminToken string
	jsonOutput bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:     "folio-cli",
	Version: version,
	Short:   "Admin client for a folio content server",
	Long: `folio-cli manages the content of a folio server: publish blog posts
from markdown files, upload gallery images, delete content and inspect
analytics.

Connection settings come from, in increasing precedence: the profile in
~/.folio/config.yaml, FOLIO_ENDPOINT / FOLIO_API_PREFIX / FOLIO_ADMIN_TOKEN,
and the flags below.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.folio/config.yaml, env: FOLIO_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (default: the default profile, env: FOLIO_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:5708, env: FOLIO_ENDPOINT)")
	rootCmd.PersistentFlags().StringVar(&apiPrefix, "api-prefix", "", "API mount path (default: /api, env: FOLIO_API_PREFIX)")
	rootCmd.PersistentFlags().StringVarP(&adminToken, "token", "t", "", "admin token (env: FOLIO_ADMIN_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			_ = getFormatter().FormatError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// getConfigPath resolves the profile file from the flag, the environment,
// or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges the profile, environment and flags (flags take
// precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	name := profile
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}

	file, err := clientcli.LoadConfigFile(getConfigPath())
	switch {
	case err == nil:
		p, profileErr := file.GetProfile(name)
		switch {
		case profileErr == nil:
			configs = append(configs, clientcli.ConfigFromProfile(p))
		case name != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles):
			return nil, profileErr
		}
	case errors.Is(err, os.ErrNotExist):
		if cfgFile != "" || name != "" {
			return nil, err
		}
	default:
		return nil, err
	}

	configs = append(configs,
		clientcli.ConfigFromEnv(),
		&clientcli.Config{Endpoint: endpoint, APIPrefix: apiPrefix, AdminToken: adminToken},
	)

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return clientcli.New(cfg)
}

// exitError is returned when we want to exit with a failure code
// without printing another error message.
type exitError struct{}

func (e *exitError) Error() string {
	return "one or more operations failed"
}
