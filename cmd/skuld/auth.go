package main

import (
	"fmt"
	"os"

	"github.com/rohankatakam/skuld/internal/config"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Jira and WakaTime credentials in the OS keychain",
	Long: `Store, remove and inspect the Jira API token and the WakaTime API key.

Secrets are resolved in this order: environment variable (JIRA_API_TOKEN,
WAKATIME_API_KEY), OS keychain, config file.`,
}

var authSetCmd = &cobra.Command{
	Use:       "set jira|wakatime",
	Short:     "Store a secret in the OS keychain",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"jira", "wakatime"},
	RunE:      runAuthSet,
}

var authDeleteCmd = &cobra.Command{
	Use:       "delete jira|wakatime",
	Short:     "Remove a secret from the OS keychain",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"jira", "wakatime"},
	RunE:      runAuthDelete,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where each credential comes from",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authDeleteCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	item, err := config.SecretItem(args[0])
	if err != nil {
		return err
	}

	km := config.NewKeyringManager()
	if !km.IsAvailable() {
		return fmt.Errorf("OS keychain is not available; set the secret through the environment or %s instead", cfg.Path)
	}

	secret, err := config.ReadSecret(fmt.Sprintf("Enter %s secret: ", args[0]), os.Stdin, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	if err := km.SetSecret(item, secret); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s secret to keychain (%s)\n", args[0], config.MaskSecret(secret))
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	item, err := config.SecretItem(args[0])
	if err != nil {
		return err
	}
	if err := config.NewKeyringManager().DeleteSecret(item); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s secret from keychain\n", args[0])
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	km := config.NewKeyringManager()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Jira")
	fmt.Fprintf(out, "  site:  %s\n", orNotSet(cfg.Jira.Site))
	fmt.Fprintf(out, "  email: %s\n", orNotSet(cfg.Jira.Email))
	fmt.Fprintf(out, "  token: %s (source: %s)\n",
		config.MaskSecret(cfg.Jira.APIToken), config.KeySource(cfg, km, config.KeyringJiraTokenItem))

	fmt.Fprintln(out, "WakaTime")
	fmt.Fprintf(out, "  api:   %s\n", cfg.WakaTime.BaseURL)
	fmt.Fprintf(out, "  key:   %s (source: %s)\n",
		config.MaskSecret(cfg.WakaTime.APIKey), config.KeySource(cfg, km, config.KeyringWakaTimeKeyItem))

	if !km.IsAvailable() {
		fmt.Fprintln(out, "\nOS keychain is not available on this system.")
	}
	return nil
}

func orNotSet(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}
