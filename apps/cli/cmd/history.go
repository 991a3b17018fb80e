package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/history"
)

var (
	historyRequestFlag string
	historyLimitFlag   int
	historyYesFlag     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect requests sent from this workspace",
	Long: `Every send and run is recorded in a SQLite database in the workspace
(see historyDb in the config file).

Examples:
  hitdesk history list
  hitdesk history list --request "Users/get user" --limit 5
  hitdesk history stats "Users/get user"
  hitdesk history clear --yes`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent requests, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := openHistory()
		if err != nil {
			return err
		}
		defer hist.Close()

		entries, err := hist.List(cmd.Context(), history.Filter{
			RequestPath: historyRequestFlag,
			Limit:       historyLimitFlag,
		})
		if err != nil {
			return err
		}
		newConsole(cmd).FormatHistory(entries)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats <request-path>",
	Short: "Show latency percentiles for one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := openHistory()
		if err != nil {
			return err
		}
		defer hist.Close()

		stats, err := hist.Stats(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		newConsole(cmd).FormatStats(args[0], stats)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !historyYesFlag {
			return withExitCode(ExitUsageError, fmt.Errorf("refusing to clear history without --yes"))
		}
		hist, err := openHistory()
		if err != nil {
			return err
		}
		defer hist.Close()

		n, err := hist.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
		return nil
	},
}

func init() {
	historyListCmd.Flags().StringVar(&historyRequestFlag, "request", "", "Only entries for this request path (collection/folder/request)")
	historyListCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", getEnvInt("HITDESK_HISTORY_LIMIT", 20), "Maximum entries to show (env: HITDESK_HISTORY_LIMIT)")
	historyClearCmd.Flags().BoolVarP(&historyYesFlag, "yes", "y", false, "Confirm deleting all entries")

	historyCmd.AddCommand(historyListCmd, historyStatsCmd, historyClearCmd)
}
