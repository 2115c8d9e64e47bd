package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rohankatakam/skuld/internal/cli"
	"github.com/rohankatakam/skuld/internal/config"
	"github.com/rohankatakam/skuld/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile   string
	verbose   bool
	logger    *logrus.Logger
	logCloser io.Closer
	cfg       *config.Config
)

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		cli.PrintError(os.Stderr, err, verbose)
		os.Exit(cli.ExitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "skuld",
	Short: "skuld - turn git history and WakaTime into Jira worklogs",
	Long: `skuld reconciles local git history, WakaTime tracked time and Jira.
It attributes tracked time to the issues named by your branches, checks that
the issues are yours, and logs only the time Jira does not already have.

Runs are previews unless --apply is given.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		logger, logCloser, err = logging.New(logging.Config{
			Verbose:    verbose,
			OutputFile: cfg.Log.File,
			JSONFormat: cfg.Log.JSON,
			Output:     cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		logger.WithField("config", cfg.Path).Debug("configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $SKULD_CONFIG or ~/.skuld.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`skuld {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No config needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "skuld %s\nBuild time: %s\nGit commit: %s\n", Version, BuildTime, GitCommit)
	},
}
