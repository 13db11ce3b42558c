package main

import (
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <backup-id>",
	Short: "Restore a backup to its original location",
	Long: `Restore extracts a backup archive. Without --target the save
goes back to where it was archived from. An existing target is never
touched unless --overwrite is given.`,
	Example: `  saveguardian restore Stardew_Valley_413150_steam
  saveguardian restore Stardew_Valley_413150_steam --target /tmp/inspect --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

var (
	restoreTarget    string
	restoreOverwrite bool
)

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVarP(&restoreTarget, "target", "t", "",
		"Restore into this directory instead of the original path")
	restoreCmd.Flags().BoolVar(&restoreOverwrite, "overwrite", false,
		"Replace the target if it already exists")
}

func runRestore(cmd *cobra.Command, args []string) error {
	info, err := findBackupByID(args[0])
	if err != nil {
		return err
	}

	if err := appClient.RestoreBackup(info, restoreTarget, restoreOverwrite); err != nil {
		return err
	}

	target := restoreTarget
	if target == "" {
		target = info.OriginalPath
	}

	if jsonOutput {
		printJSON(map[string]string{"id": info.ID, "restored_to": target})
		return nil
	}

	printSuccess("Restored %s to %s", info.GameName, target)
	return nil
}
