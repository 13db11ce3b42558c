package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Arionyxx/save-guardian/internal/models"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage save backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create <game-name>",
	Short: "Back up a discovered save by game name",
	Long: `Create scans for saves, picks the one whose name contains the
given text, and archives it into the backup root.`,
	Example: `  saveguardian backup create "Stardew Valley"
  saveguardian backup create Witcher --description "before DLC"`,
	Args: cobra.ExactArgs(1),
	RunE: runBackupCreate,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE:  runBackupList,
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <backup-id>",
	Short: "Delete a backup and its metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackupDelete,
}

var backupStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show backup storage statistics",
	RunE:  runBackupStats,
}

var backupCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete backups older than the retention period",
	RunE:  runBackupCleanup,
}

var (
	backupDescription string
	backupListName    string
	backupListTitleID uint32
)

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupDeleteCmd)
	backupCmd.AddCommand(backupStatsCmd)
	backupCmd.AddCommand(backupCleanupCmd)

	backupCreateCmd.Flags().StringVarP(&backupDescription, "description", "d", "",
		"Free-form note stored with the backup")

	backupListCmd.Flags().StringVar(&backupListName, "game", "",
		"Filter by game name substring")
	backupListCmd.Flags().Uint32Var(&backupListTitleID, "app-id", 0,
		"Filter by exact Steam app id")
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	query := args[0]

	save, err := findSaveByName(query)
	if err != nil {
		return err
	}

	info, err := appClient.CreateBackup(save, backupDescription)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(info)
		return nil
	}

	printSuccess("Backed up %s", save.DisplayName())
	printKeyValue("ID", "%s", info.ID)
	printKeyValue("Archive", "%s", info.ArchivePath)
	printKeyValue("Size", "%s", models.FormatSize(info.Size))
	return nil
}

func runBackupList(cmd *cobra.Command, args []string) error {
	var titleID *uint32
	if backupListTitleID != 0 {
		titleID = &backupListTitleID
	}

	backups, err := appClient.ListBackups(backupListName, titleID)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(backups)
		return nil
	}

	if len(backups) == 0 {
		printWarning("No backups found")
		return nil
	}

	printHeader("Backups (%d)", len(backups))
	for i := range backups {
		b := &backups[i]
		fmt.Printf("  %s\n", b.GameName)
		printKeyValue("ID", "%s", b.ID)
		printKeyValue("Created", "%s", b.CreatedAt.Format("2006-01-02 15:04:05"))
		printKeyValue("Size", "%s", models.FormatSize(b.Size))
		if b.Description != "" {
			printKeyValue("Note", "%s", b.Description)
		}
		fmt.Println()
	}

	return nil
}

func runBackupDelete(cmd *cobra.Command, args []string) error {
	info, err := findBackupByID(args[0])
	if err != nil {
		return err
	}

	if err := appClient.DeleteBackup(info); err != nil {
		return err
	}

	printSuccess("Deleted backup %s", info.ID)
	return nil
}

func runBackupStats(cmd *cobra.Command, args []string) error {
	stats, err := appClient.BackupStats()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(stats)
		return nil
	}

	printHeader("Backup statistics")
	printKeyValue("Total", "%d (%s)", stats.TotalCount, models.FormatSize(stats.TotalSize))
	printKeyValue("Steam", "%d", stats.SteamCount)
	printKeyValue("Non-Steam", "%d", stats.NonSteamCount)
	if stats.OldestBackup != nil {
		printKeyValue("Oldest", "%s", stats.OldestBackup.Format("2006-01-02"))
	}
	if stats.NewestBackup != nil {
		printKeyValue("Newest", "%s", stats.NewestBackup.Format("2006-01-02"))
	}
	return nil
}

func runBackupCleanup(cmd *cobra.Command, args []string) error {
	deleted, err := appClient.CleanupOldBackups()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]int{"deleted": deleted})
		return nil
	}

	printSuccess("Deleted %d backups past retention", deleted)
	return nil
}

// findSaveByName scans and returns the save whose name contains query,
// case-insensitively. Ambiguity is an error listing the candidates.
func findSaveByName(query string) (*models.GameSave, error) {
	steam, nonSteam, err := appClient.ScanAll()
	if err != nil && len(steam) == 0 && len(nonSteam) == 0 {
		return nil, err
	}

	lowered := strings.ToLower(query)
	var matches []*models.GameSave
	for i := range steam {
		if strings.Contains(strings.ToLower(steam[i].Name), lowered) {
			matches = append(matches, &steam[i])
		}
	}
	for i := range nonSteam {
		if strings.Contains(strings.ToLower(nonSteam[i].Name), lowered) {
			matches = append(matches, &nonSteam[i])
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no save matches %q", query)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.DisplayName()
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(names, ", "))
	}
}

func findBackupByID(id string) (*models.BackupInfo, error) {
	backups, err := appClient.ListBackups("", nil)
	if err != nil {
		return nil, err
	}

	for i := range backups {
		if backups[i].ID == id {
			return &backups[i], nil
		}
	}

	return nil, fmt.Errorf("no backup with id %q", id)
}
