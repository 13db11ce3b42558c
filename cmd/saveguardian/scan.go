package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Arionyxx/save-guardian/internal/models"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover game saves on this machine",
	Long: `Scan walks the Steam userdata tree and common non-Steam save
locations and lists every game save it finds.`,
	Example: `  saveguardian scan
  saveguardian scan --steam-only
  saveguardian scan --location /mnt/games/saves`,
	RunE: runScan,
}

var (
	scanSteamOnly    bool
	scanNonSteamOnly bool
	scanLocations    []string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanSteamOnly, "steam-only", false,
		"Scan only Steam userdata")
	scanCmd.Flags().BoolVar(&scanNonSteamOnly, "nonsteam-only", false,
		"Scan only non-Steam locations")
	scanCmd.Flags().StringSliceVar(&scanLocations, "location", nil,
		"Additional directory to scan (repeatable)")
	scanCmd.MarkFlagsMutuallyExclusive("steam-only", "nonsteam-only")
}

func runScan(cmd *cobra.Command, args []string) error {
	for _, loc := range scanLocations {
		appClient.AddScanLocation(loc)
	}

	var steam, nonSteam []models.GameSave
	var err error

	switch {
	case scanSteamOnly:
		steam, err = appClient.ScanSteam()
	case scanNonSteamOnly:
		nonSteam, err = appClient.ScanNonSteam()
	default:
		steam, nonSteam, err = appClient.ScanAll()
	}
	if err != nil && len(steam) == 0 && len(nonSteam) == 0 {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"steam_saves":     steam,
			"non_steam_saves": nonSteam,
		})
		return nil
	}

	if len(steam) > 0 {
		printHeader("Steam saves (%d)", len(steam))
		for i := range steam {
			printSave(&steam[i])
		}
	}

	if len(nonSteam) > 0 {
		printHeader("Non-Steam saves (%d)", len(nonSteam))
		for i := range nonSteam {
			printSave(&nonSteam[i])
		}
	}

	if len(steam) == 0 && len(nonSteam) == 0 {
		printWarning("No saves found")
	}

	return nil
}

func printSave(save *models.GameSave) {
	fmt.Printf("  %s\n", save.DisplayName())
	printKeyValue("Path", "%s", save.Path)
	printKeyValue("Size", "%s", models.FormatSize(save.Size))
	if save.LastModified != nil {
		printKeyValue("Modified", "%s", save.LastModified.Format("2006-01-02 15:04:05"))
	}
	fmt.Println()
}
