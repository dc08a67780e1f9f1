package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/folio/clientcli"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage server profiles in the configuration file.

A profile stores the endpoint, API prefix and admin token of one folio
server. Pick one with --profile or FOLIO_PROFILE.

Profiles are stored in ~/.folio/config.yaml`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured profiles",
	Args:  cobra.NoArgs,
	RunE:  runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile interactively",
	Long: `Add or update a profile interactively.

You will be prompted for the endpoint URL, the API prefix, the admin token
and whether the profile becomes the default. The token is checked against
the server before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile, the default one when no name is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigureShow,
}

var showSecrets bool

func init() {
	configureCmd.AddCommand(
		configureListCmd,
		configureAddCmd,
		configureRemoveCmd,
		configureSetDefaultCmd,
		configureShowCmd,
	)

	configureShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show the admin token")
	configureListCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show admin tokens")
}

// prompter asks the operator for profile settings.
type prompter interface {
	Ask(label, def string, secret bool, validate func(string) error) (string, error)
	Confirm(label string) bool
}

type terminalPrompter struct{}

func (terminalPrompter) Ask(label, def string, secret bool, validate func(string) error) (string, error) {
	p := promptui.Prompt{Label: label, Default: def, Validate: validate}
	if secret {
		p.Mask = '*'
	}
	return p.Run()
}

func (terminalPrompter) Confirm(label string) bool {
	p := promptui.Prompt{Label: label, IsConfirm: true}
	_, err := p.Run()
	return err == nil
}

var prompts prompter = terminalPrompter{}

// verifyToken is swapped in tests.
var verifyToken = verifyProfile

// errCancelled stops a command after the operator backed out.
var errCancelled = errors.New("cancelled")

// openProfiles loads the profiles file. With allowMissing a missing file
// yields an empty ConfigFile.
func openProfiles(allowMissing bool) (*clientcli.ConfigFile, string, error) {
	path := getConfigPath()
	cfg, err := clientcli.LoadConfigFile(path)
	switch {
	case err == nil:
		return cfg, path, nil
	case allowMissing && errors.Is(err, os.ErrNotExist):
		return &clientcli.ConfigFile{}, path, nil
	default:
		return nil, path, fmt.Errorf("load config: %w", err)
	}
}

func saveProfiles(cfg *clientcli.ConfigFile, path string) error {
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, _, err := openProfiles(true)
	if err != nil {
		return err
	}
	if len(cfg.Profiles) == 0 {
		fmt.Fprintln(out, "No profiles configured.")
		fmt.Fprintln(out, "Run 'folio-cli configure add <name>' to create one.")
		return nil
	}

	return getFormatter().FormatProfileList(out, cfg.Profiles, cfg.DefaultName(), showSecrets)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	cfg, path, err := openProfiles(true)
	if err != nil {
		return err
	}

	base := clientcli.Profile{Name: name, Endpoint: clientcli.DefaultEndpoint, APIPrefix: clientcli.DefaultAPIPrefix}
	existing, _ := cfg.GetProfile(name)
	if existing != nil {
		if !prompts.Confirm(fmt.Sprintf("Profile '%s' already exists. Update it", name)) {
			return cancelled(out, errCancelled)
		}
		base = *existing
	}

	p, err := askProfile(prompts, base)
	if err != nil {
		return cancelled(out, err)
	}

	// The first profile is always the default, and an updated default stays one.
	makeDefault := len(cfg.Profiles) == 0 || base.Default || prompts.Confirm("Set as default profile")

	fmt.Fprint(out, "Verifying token... ")
	if err := verifyToken(cmd.Context(), p); err != nil {
		fmt.Fprintf(out, "FAILED\nWarning: %v\n", err)
		if !prompts.Confirm("Save profile anyway") {
			return cancelled(out, errCancelled)
		}
	} else {
		fmt.Fprintln(out, "OK")
	}

	cfg.PutProfile(p)
	if makeDefault {
		if err := cfg.SetDefault(name); err != nil {
			return err
		}
	}
	if err := saveProfiles(cfg, path); err != nil {
		return err
	}

	verb := "added"
	if existing != nil {
		verb = "updated"
	}
	fmt.Fprintf(out, "Profile '%s' %s.\n", name, verb)
	if makeDefault {
		fmt.Fprintln(out, "Set as default profile.")
	}
	return nil
}

// askProfile prompts for every field of base. A blank token answer keeps
// base.AdminToken; the Default flag is left for the caller.
func askProfile(pr prompter, base clientcli.Profile) (clientcli.Profile, error) {
	endpointURL, err := pr.Ask("Endpoint URL", base.Endpoint, false, validateEndpoint)
	if err != nil {
		return clientcli.Profile{}, err
	}

	prefix, err := pr.Ask("API prefix", base.APIPrefix, false, nil)
	if err != nil {
		return clientcli.Profile{}, err
	}

	token, err := pr.Ask("Admin token", "", true, func(input string) error {
		if strings.TrimSpace(input) == "" && base.AdminToken == "" {
			return clientcli.ErrTokenRequired
		}
		return nil
	})
	if err != nil {
		return clientcli.Profile{}, err
	}
	if strings.TrimSpace(token) == "" {
		token = base.AdminToken
	}

	return clientcli.Profile{
		Name:       base.Name,
		Endpoint:   strings.TrimSuffix(strings.TrimSpace(endpointURL), "/"),
		APIPrefix:  strings.TrimSpace(prefix),
		AdminToken: strings.TrimSpace(token),
	}, nil
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	name := args[0]

	cfg, path, err := openProfiles(false)
	if err != nil {
		return err
	}
	if _, err := cfg.GetProfile(name); err != nil {
		return err
	}

	if !prompts.Confirm(fmt.Sprintf("Remove profile '%s'", name)) {
		return cancelled(out, errCancelled)
	}

	if err := cfg.RemoveProfile(name); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}
	if err := saveProfiles(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(out, "Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, path, err := openProfiles(false)
	if err != nil {
		return err
	}
	if err := cfg.SetDefault(name); err != nil {
		return err
	}
	if err := saveProfiles(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default profile set to '%s'.\n", name)
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := openProfiles(false)
	if err != nil {
		return err
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}
	p, err := cfg.GetProfile(name)
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), *p, p.Name == cfg.DefaultName(), showSecrets)
}

func validateEndpoint(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return errors.New("endpoint URL is required")
	}
	u, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// verifyProfile checks the token with /auth/verify.
func verifyProfile(ctx context.Context, p clientcli.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := clientcli.New(clientcli.ConfigFromProfile(&p))
	if err != nil {
		return err
	}
	return client.Verify(ctx)
}

// cancelled turns an aborted prompt into a clean exit. Ctrl-C exits non-zero
// without printing another error.
func cancelled(out io.Writer, err error) error {
	switch {
	case errors.Is(err, promptui.ErrInterrupt):
		fmt.Fprintln(out, "\nCancelled.")
		return &exitError{}
	case errors.Is(err, promptui.ErrAbort), errors.Is(err, errCancelled):
		fmt.Fprintln(out, "Cancelled.")
		return nil
	default:
		return err
	}
}
