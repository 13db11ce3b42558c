package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Transfer backups to and from a WebDAV share",
}

var cloudUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload local backups to the cloud folder",
	RunE:  runCloudUpload,
}

var cloudDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download remote backups into the local backup root",
	RunE:  runCloudDownload,
}

var cloudPassword string

func init() {
	rootCmd.AddCommand(cloudCmd)
	cloudCmd.AddCommand(cloudUploadCmd)
	cloudCmd.AddCommand(cloudDownloadCmd)

	cloudCmd.PersistentFlags().StringVarP(&cloudPassword, "password", "p", "",
		"WebDAV password (will prompt if not configured)")
}

func runCloudUpload(cmd *cobra.Command, args []string) error {
	if err := ensureCloudCredentials(); err != nil {
		return err
	}

	uploaded, err := appClient.CloudUpload()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]int{"uploaded": uploaded})
		return nil
	}

	printSuccess("Uploaded %d backups", uploaded)
	return nil
}

func runCloudDownload(cmd *cobra.Command, args []string) error {
	if err := ensureCloudCredentials(); err != nil {
		return err
	}

	downloaded, err := appClient.CloudDownload()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]int{"downloaded": downloaded})
		return nil
	}

	printSuccess("Downloaded %d backups", downloaded)
	return nil
}

// ensureCloudCredentials fills the password from the flag or an
// interactive prompt. Flag beats config beats prompt.
func ensureCloudCredentials() error {
	if cloudPassword != "" {
		cfg.Cloud.Password = cloudPassword
	}
	if cfg.Cloud.Password != "" {
		return nil
	}

	password, err := promptPassword(fmt.Sprintf("WebDAV password for %s: ", cfg.Cloud.Username))
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	cfg.Cloud.Password = password
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}

	return string(password), nil
}
