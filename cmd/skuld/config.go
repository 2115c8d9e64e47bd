package main

import (
	"fmt"

	"github.com/rohankatakam/skuld/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect skuld configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), cfg.Path)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors and warnings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Errors already stop config loading; only warnings can remain here
		result := cfg.Validate()
		out := cmd.OutOrStdout()
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "⚠ %s\n", w)
		}
		if !cfg.HasJiraCredentials() {
			fmt.Fprintln(out, "⚠ Jira site, email or token missing; ownership cannot be verified")
		}
		fmt.Fprintf(out, "✓ %s is valid\n", cfg.Path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := maskedConfig(cfg)
	data, err := yaml.Marshal(shown)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", cfg.Path, data)
	return nil
}

func maskedConfig(c *config.Config) config.Config {
	shown := *c
	shown.Projects = append([]config.ProjectMapping(nil), c.Projects...)
	if shown.Jira.APIToken != "" {
		shown.Jira.APIToken = config.MaskSecret(shown.Jira.APIToken)
	}
	if shown.WakaTime.APIKey != "" {
		shown.WakaTime.APIKey = config.MaskSecret(shown.WakaTime.APIKey)
	}
	return shown
}
