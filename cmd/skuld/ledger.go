package main

import (
	"github.com/rohankatakam/skuld/internal/cli"
	"github.com/rohankatakam/skuld/internal/journal"
	"github.com/rohankatakam/skuld/internal/ledger"
	"github.com/rohankatakam/skuld/internal/output"
	"github.com/spf13/cobra"
)

var (
	ledgerIssue   string
	ledgerProject string
	ledgerJSON    bool

	historyLimit int
	historyJSON  bool
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the local record of uploaded worklogs",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List ledger entries and last-sync markers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := ledger.Open(cfg.State.Path)
		state, err := store.Load()
		if err != nil {
			logger.WithError(err).Warnf("ledger %s is unreadable; showing it as empty", store.Path())
		}
		if ledgerJSON {
			return output.WriteJSON(cmd.OutOrStdout(), state)
		}
		project := cli.ResolveRepoPath(cmd.Context(), ledgerProject)
		if mapping, err := cfg.ProjectFor(project); err == nil {
			project = mapping.Path
		}
		return output.FormatLedger(cmd.OutOrStdout(), state, ledgerIssue, project)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past preview and apply runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.Open(cfg.State.HistoryPath)
		if err != nil {
			return err
		}
		defer j.Close()

		runs, err := j.List(historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			return output.WriteJSON(cmd.OutOrStdout(), runs)
		}
		return output.FormatHistory(cmd.OutOrStdout(), runs)
	},
}

func init() {
	ledgerShowCmd.Flags().StringVar(&ledgerIssue, "issue", "", "only show entries for this issue key")
	ledgerShowCmd.Flags().StringVar(&ledgerProject, "project", "", "repository whose last sync is shown first (default: current)")
	ledgerShowCmd.Flags().BoolVar(&ledgerJSON, "json", false, "print the ledger as JSON")
	ledgerCmd.AddCommand(ledgerShowCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print runs as JSON")
}
