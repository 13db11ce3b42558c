package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Arionyxx/save-guardian/internal/models"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pair and sync Steam and non-Steam saves",
}

var syncPairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "Show detected save pairs",
	RunE:  runSyncPairs,
}

var syncRunCmd = &cobra.Command{
	Use:   "run <game-name>",
	Short: "Sync the pair matching a game name",
	Long: `Run finds the pair whose game name contains the given text and
copies save data across it. By default the newer side wins; use
--direction to force one.`,
	Example: `  saveguardian sync run "Dying Light"
  saveguardian sync run Witcher --direction steam_to_nonsteam`,
	Args: cobra.ExactArgs(1),
	RunE: runSyncRun,
}

var syncDirection string

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncPairsCmd)
	syncCmd.AddCommand(syncRunCmd)

	syncRunCmd.Flags().StringVarP(&syncDirection, "direction", "d", string(models.Bidirectional),
		"Sync direction: bidirectional, steam_to_nonsteam, nonsteam_to_steam")
}

func runSyncPairs(cmd *cobra.Command, args []string) error {
	pairs, err := appClient.FindSyncPairs()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(pairs)
		return nil
	}

	if len(pairs) == 0 {
		printWarning("No save pairs found")
		return nil
	}

	printHeader("Save pairs (%d)", len(pairs))
	for i := range pairs {
		p := &pairs[i]
		fmt.Printf("  %s\n", p.GameName)
		if p.SteamSave != nil {
			printKeyValue("Steam", "%s", p.SteamSave.Path)
		}
		if p.NonSteamSave != nil {
			printKeyValue("Non-Steam", "%s", p.NonSteamSave.Path)
		}
		if p.SteamSave == nil || p.NonSteamSave == nil {
			printKeyValue("Status", "one-sided, cannot sync")
		}
		fmt.Println()
	}

	return nil
}

func runSyncRun(cmd *cobra.Command, args []string) error {
	direction := models.SyncDirection(syncDirection)
	switch direction {
	case models.Bidirectional, models.SteamToNonSteam, models.NonSteamToSteam:
	default:
		return fmt.Errorf("invalid direction %q", syncDirection)
	}

	pairs, err := appClient.FindSyncPairs()
	if err != nil {
		return err
	}

	pair, err := findPairByName(pairs, args[0])
	if err != nil {
		return err
	}

	result, err := appClient.SyncSaves(pair, direction)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}

	printSuccess("Synced %s", pair.GameName)
	printKeyValue("Files", "%d", result.FilesCopied)
	printKeyValue("Bytes", "%s", models.FormatSize(result.BytesCopied))
	printKeyValue("From", "%s", result.SourcePath)
	printKeyValue("To", "%s", result.DestinationPath)
	return nil
}

func findPairByName(pairs []models.SyncPair, query string) (*models.SyncPair, error) {
	lowered := strings.ToLower(query)
	var matches []*models.SyncPair
	for i := range pairs {
		if strings.Contains(strings.ToLower(pairs[i].GameName), lowered) {
			matches = append(matches, &pairs[i])
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no pair matches %q", query)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.GameName
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
	}
}
