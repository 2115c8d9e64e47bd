package main

import (
	"fmt"

	"github.com/rohankatakam/skuld/internal/cli"
	"github.com/rohankatakam/skuld/internal/config"
	"github.com/rohankatakam/skuld/internal/errors"
	"github.com/spf13/cobra"
)

var (
	mapProject         string
	mapWakaTimeProject string
	mapJiraProject     string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map a repository to its WakaTime and Jira projects",
	Long: `Record which WakaTime project and (optionally) which Jira project a local
repository belongs to. sync refuses to run in a repository without a mapping.

Examples:
  skuld map --wakatime-project shop-api
  skuld map --project ~/src/shop --wakatime-project shop --jira-project SHOP`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVar(&mapProject, "project", "", "repository path (default: enclosing git repository)")
	mapCmd.Flags().StringVar(&mapWakaTimeProject, "wakatime-project", "", "WakaTime project name")
	mapCmd.Flags().StringVar(&mapJiraProject, "jira-project", "", "Jira project key; issues with other prefixes are ignored")
	mapCmd.MarkFlagRequired("wakatime-project")
}

func runMap(cmd *cobra.Command, args []string) error {
	if mapWakaTimeProject == "" {
		return errors.ValidationErrorf("--wakatime-project must not be empty")
	}

	m := config.ProjectMapping{
		Path:            cli.ResolveRepoPath(cmd.Context(), mapProject),
		WakaTimeProject: mapWakaTimeProject,
		JiraProject:     mapJiraProject,
	}
	cfg.SetProject(m)
	if result := cfg.Validate(); result.HasErrors() {
		return errors.ConfigError(result.Error())
	}
	if err := cfg.SaveProjects(cfg.Path); err != nil {
		return errors.FileSystemError(err, "failed to save project mapping")
	}

	mapped, _ := cfg.ProjectFor(m.Path)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Mapped %s\n", mapped.Path)
	fmt.Fprintf(out, "  WakaTime project: %s\n", mapped.WakaTimeProject)
	if mapped.JiraProject != "" {
		fmt.Fprintf(out, "  Jira project:     %s\n", mapped.JiraProject)
	}
	fmt.Fprintf(out, "  Saved to %s\n", cfg.Path)
	return nil
}
