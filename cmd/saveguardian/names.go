package main

import (
	"context"

	"github.com/spf13/cobra"
)

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "Manage the cached Steam game names",
}

var namesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-resolve cached names that look wrong",
	Long: `Refresh walks the name cache and re-resolves entries that look
like placeholders or junk. Entries that still cannot be resolved are
evicted so the next scan retries them.`,
	RunE: runNamesRefresh,
}

func init() {
	rootCmd.AddCommand(namesCmd)
	namesCmd.AddCommand(namesRefreshCmd)
}

func runNamesRefresh(cmd *cobra.Command, args []string) error {
	updated := appClient.RefreshNames(context.Background())

	if jsonOutput {
		printJSON(map[string]int{"updated": updated})
		return nil
	}

	printSuccess("Refreshed %d cached names", updated)
	return nil
}
